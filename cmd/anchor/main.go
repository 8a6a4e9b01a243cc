// Package main is the anchor CLI: an interactive shell over the client data
// layer, standing in for the mobile UI. It renders the offline snapshot
// immediately on startup and then works against the live backend.
package main

import (
	"bufio"
	"cmp"
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"

	"github.com/anchor-labs/anchor/internal/config"
	"github.com/anchor-labs/anchor/internal/gateway"
	"github.com/anchor-labs/anchor/internal/logger"
	"github.com/anchor-labs/anchor/internal/models"
	"github.com/anchor-labs/anchor/internal/offline"
	"github.com/anchor-labs/anchor/internal/store"
)

var (
	version   string
	buildDate string
)

// session wires the data layer together for one user.
type session struct {
	store *store.Store
	gw    *gateway.Client
	cache *offline.Cache
	scope string // current group scope; "" = all items
	undo  func()
	log   *zap.Logger
}

func main() {
	cfg, err := config.Load("./configs")
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading configuration: %v\n", err)
		os.Exit(1)
	}
	if cfg.UserID == "" {
		fmt.Fprintln(os.Stderr, "ANCHOR_USER_ID is not set")
		os.Exit(1)
	}

	log := logger.New()
	if err := log.Init(cfg.LogLevel); err != nil {
		fmt.Fprintf(os.Stderr, "failed to init logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Log.Sync() }()

	gw := gateway.New(cfg.BaseURL, cfg.UserID, nil, log.Log)
	st := store.New(gw, cfg.UserID, log.Log, store.Options{})
	defer st.Close()

	cache, err := offline.Open(cfg.CachePath, log.Log)
	if err != nil {
		log.Log.Warn("offline cache unavailable", zap.Error(err))
	} else {
		defer cache.Close()
	}

	s := &session{store: st, gw: gw, cache: cache, log: log.Log}

	fmt.Printf("anchor %s (%s), user %s\n", cmp.Or(version, "dev"), cmp.Or(buildDate, "dev"), cfg.UserID)
	s.showOffline(cfg.UserID)
	s.repl(cfg.UserID)
}

// showOffline prints the cached snapshot before any network round-trip.
func (s *session) showOffline(userID string) {
	if s.cache == nil {
		return
	}
	items, err := s.cache.Get(userID)
	if err != nil || len(items) == 0 {
		return
	}
	fmt.Printf("(offline) %d saved links:\n", len(items))
	printItems(items)
}

func (s *session) repl(userID string) {
	scanner := bufio.NewScanner(os.Stdin)
	ctx := context.Background()

	for {
		fmt.Print("anchor> ")
		if !scanner.Scan() {
			break
		}
		args := strings.Fields(strings.TrimSpace(scanner.Text()))
		if len(args) == 0 {
			continue
		}
		switch args[0] {
		case "help":
			fmt.Println("Commands: list, more, refresh, search <text>, save <url> [note...], " +
				"delete <id>, undo, note <id> <text...>, open <id>, groups, " +
				"group create|rename|delete, use <group-id>, use all, exit")
		case "list":
			s.list(ctx, userID)
		case "more":
			if err := s.store.LoadNextPage(ctx, s.scope); err != nil {
				fmt.Println("error:", err)
				continue
			}
			s.list(ctx, userID)
		case "refresh":
			if _, err := s.store.Refresh(ctx, s.scope); err != nil {
				fmt.Println("error:", err)
				continue
			}
			s.list(ctx, userID)
		case "search":
			s.store.SetQuery(s.scope, strings.Join(args[1:], " "))
			fmt.Println("(filter applies after a short pause; run 'list')")
		case "save":
			if len(args) < 2 {
				fmt.Println("Usage: save <url> [note...]")
				continue
			}
			s.save(ctx, args[1], strings.Join(args[2:], " "))
		case "delete":
			if len(args) < 2 {
				fmt.Println("Usage: delete <id>")
				continue
			}
			s.undo = s.store.DeleteWithUndo(args[1])
			fmt.Println("Deleted. 'undo' restores it for a few seconds.")
		case "undo":
			if s.undo == nil {
				fmt.Println("Nothing to undo")
				continue
			}
			s.undo()
			s.undo = nil
			fmt.Println("Restored")
		case "note":
			if len(args) < 3 {
				fmt.Println("Usage: note <id> <text...>")
				continue
			}
			note := strings.Join(args[2:], " ")
			if err := s.store.Update(ctx, args[1], models.ItemPatch{Note: &note}); err != nil {
				fmt.Println("error:", err)
			}
		case "open":
			if len(args) < 2 {
				fmt.Println("Usage: open <id>")
				continue
			}
			if err := s.store.MarkOpened(ctx, args[1]); err != nil {
				fmt.Println("error:", err)
			}
		case "groups":
			s.groups(ctx)
		case "group":
			s.group(ctx, args[1:])
		case "use":
			if len(args) < 2 {
				fmt.Println("Usage: use <group-id> | use all")
				continue
			}
			if args[1] == "all" {
				s.scope = store.ScopeAll
			} else {
				s.scope = args[1]
			}
			s.list(ctx, userID)
		case "exit":
			fmt.Println("Bye")
			return
		default:
			fmt.Println("Unknown command. Type 'help' for a list of commands.")
		}
	}
}

func (s *session) list(ctx context.Context, userID string) {
	items, err := s.store.Snapshot(ctx, s.scope)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	printItems(items)
	// Keep the offline copy fresh from the unscoped list only.
	if s.cache != nil && s.scope == store.ScopeAll {
		if err := s.cache.Put(userID, items); err != nil {
			s.log.Warn("offline cache write failed", zap.Error(err))
		}
	}
}

func (s *session) save(ctx context.Context, url, note string) {
	rec, err := s.store.Save(ctx, models.SaveInput{URL: url, Note: note})
	if existing, ok := store.IsDuplicate(err); ok {
		fmt.Printf("Already saved as %s (%s). Use the app to force-save.\n", existing.ID, existing.URL)
		return
	}
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	fmt.Printf("Saved %s as %s\n", rec.URL, rec.ID)
}

func (s *session) groups(ctx context.Context) {
	groups, err := s.gw.ListGroups(ctx)
	if err != nil {
		fmt.Println("error:", err)
		return
	}
	for _, g := range groups {
		marker := " "
		if g.IsDefault {
			marker = "*"
		}
		fmt.Printf("%s %s  %s\n", marker, g.ID, g.Name)
	}
}

func (s *session) group(ctx context.Context, args []string) {
	usage := "Usage: group create <name...> | group rename <id> <name...> | group delete <id>"
	if len(args) == 0 {
		fmt.Println(usage)
		return
	}
	switch args[0] {
	case "create":
		if len(args) < 2 {
			fmt.Println("Usage: group create <name...>")
			return
		}
		g, err := s.gw.CreateGroup(ctx, models.GroupInput{Name: strings.Join(args[1:], " ")})
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		fmt.Printf("Created group %q as %s\n", g.Name, g.ID)
	case "rename":
		if len(args) < 3 {
			fmt.Println("Usage: group rename <id> <name...>")
			return
		}
		g, err := s.gw.RenameGroup(ctx, args[1], models.GroupInput{Name: strings.Join(args[2:], " ")})
		if err != nil {
			fmt.Println("error:", err)
			return
		}
		fmt.Printf("Renamed group %s to %q\n", g.ID, g.Name)
	case "delete":
		if len(args) < 2 {
			fmt.Println("Usage: group delete <id>")
			return
		}
		if err := s.gw.DeleteGroup(ctx, args[1]); err != nil {
			fmt.Println("error:", err)
			return
		}
		if s.scope == args[1] {
			s.scope = store.ScopeAll
		}
		fmt.Println("Group deleted; its items are now ungrouped")
	default:
		fmt.Println(usage)
	}
}

func printItems(items []models.JoinedItem) {
	if len(items) == 0 {
		fmt.Println("(no saved links)")
		return
	}
	for _, it := range items {
		title := it.Title
		if title == "" {
			title = it.URL
		}
		labels := make([]string, len(it.Labels))
		for i, l := range it.Labels {
			labels[i] = "#" + l.Name
		}
		fmt.Printf("%s  %-40.40s  %s %s\n", it.ID, title, it.Domain, strings.Join(labels, " "))
		if it.Note != "" {
			fmt.Printf("    %s\n", it.Note)
		}
	}
}
