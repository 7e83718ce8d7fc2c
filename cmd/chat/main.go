// Command chat is a terminal chat client. It logs in, binds to one
// companion character, and runs a read-eval loop over the reconciled
// transcript with the relationship indicator shown after each exchange.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"astro-soulmate/backend/client"
	"astro-soulmate/backend/internal/chatview"
	"astro-soulmate/backend/internal/models"
	"astro-soulmate/backend/internal/relationship"
	"astro-soulmate/backend/pkg/config"
	"astro-soulmate/backend/pkg/logger"

	"github.com/redis/go-redis/v9"
)

func main() {
	serverURL := flag.String("server", "http://localhost:8081", "Backend server URL")
	email := flag.String("email", "", "Account email")
	password := flag.String("password", "", "Account password")
	signup := flag.Bool("signup", false, "Create the account before logging in")
	characterID := flag.String("character", "", "Character id (defaults to the first one)")
	sessionID := flag.String("session", "", "Resume an existing session")
	stateDir := flag.String("state-dir", defaultStateDir(), "Directory for the relationship snapshot file")
	flag.Parse()

	if *email == "" || *password == "" {
		fmt.Fprintln(os.Stderr, "usage: chat -email <email> -password <password> [-signup] [-character <id>] [-session <id>]")
		os.Exit(2)
	}

	logConfig := logger.DefaultConfig()
	logConfig.JSON = false
	logConfig.Level = "warn"
	log := logger.New(logConfig)
	logger.SetGlobal(log)

	ctx := context.Background()

	api := client.New(*serverURL)
	if *signup {
		if _, err := api.Signup(ctx, *email, *password); err != nil {
			fatal("signup failed: %v", err)
		}
	} else {
		if _, err := api.Login(ctx, *email, *password); err != nil {
			fatal("login failed: %v", err)
		}
	}

	character, err := pickCharacter(ctx, api, *characterID)
	if err != nil {
		fatal("%v", err)
	}

	store, err := newSnapshotStore(*stateDir)
	if err != nil {
		fatal("failed to open relationship store: %v", err)
	}

	rel := relationship.NewCache(store, log,
		relationship.WithTransientWindow(config.Get().Relationship.TransientWindow))
	defer rel.Close()

	// Seed from the profile; a fresher persisted snapshot wins over this
	rel.InitFromCharacter(character.ID, character.RelationshipScore, character.CurrentStatus)

	view := chatview.NewController(character.ID, rel, api.SendMessage, api.FetchHistory,
		chatview.WithSessionID(*sessionID))
	if *sessionID != "" {
		if err := view.Refresh(ctx); err != nil {
			fatal("failed to load session: %v", err)
		}
	}

	fmt.Printf("Chatting with %s. Type /help for commands.\n", character.Name)
	printRelationship(view.Relationship())
	printTranscript(view.Transcript())

	repl(ctx, api, view, rel, character)
}

func repl(ctx context.Context, api *client.Client, view *chatview.Controller, rel *relationship.Cache, character *models.Character) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit" || line == "/exit":
			return
		case line == "/help":
			fmt.Println("  /new        start a fresh session")
			fmt.Println("  /sessions   list sessions for this character")
			fmt.Println("  /switch ID  switch to another session")
			fmt.Println("  /refresh    refetch the transcript")
			fmt.Println("  /forget     drop the local relationship record")
			fmt.Println("  /quit       leave")
		case line == "/new":
			view.NewChat()
			fmt.Println("Started a new chat.")
		case line == "/forget":
			rel.Reset(character.ID)
			fmt.Println("Forgot the local relationship record.")
			printRelationship(view.Relationship())
		case line == "/refresh":
			if err := view.Refresh(ctx); err != nil {
				fmt.Printf("refresh failed: %v\n", err)
				continue
			}
			printTranscript(view.Transcript())
		case line == "/sessions":
			sessions, err := api.ListSessions(ctx, character.ID)
			if err != nil {
				fmt.Printf("failed to list sessions: %v\n", err)
				continue
			}
			for _, s := range sessions {
				fmt.Printf("  %s  %s  (%s)\n", s.ID, s.Title, s.UpdatedAt.Format(time.RFC3339))
			}
		case strings.HasPrefix(line, "/switch "):
			id := strings.TrimSpace(strings.TrimPrefix(line, "/switch "))
			view.SwitchSession(id)
			if err := view.Refresh(ctx); err != nil {
				fmt.Printf("failed to load session: %v\n", err)
				continue
			}
			printTranscript(view.Transcript())
		default:
			res, err := view.Send(ctx, line)
			if err != nil {
				fmt.Printf("send failed, message dropped: %v\n", err)
				continue
			}
			fmt.Printf("%s: %s\n", character.Name, res.ReplyText)
			printRelationship(view.Relationship())
		}
	}
}

func pickCharacter(ctx context.Context, api *client.Client, id string) (*models.Character, error) {
	if id != "" {
		return api.GetCharacter(ctx, id)
	}
	characters, err := api.ListCharacters(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list characters: %w", err)
	}
	if len(characters) == 0 {
		return nil, fmt.Errorf("no characters yet, create one via the API first")
	}
	return &characters[0], nil
}

// newSnapshotStore prefers Redis when configured and falls back to a
// JSON file under stateDir
func newSnapshotStore(stateDir string) (relationship.SnapshotStore, error) {
	cfg := config.Get()
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return relationship.NewRedisStore(client), nil
	}

	if err := os.MkdirAll(stateDir, 0o755); err != nil {
		return nil, err
	}
	return relationship.NewFileStore(filepath.Join(stateDir, "relationship.json"))
}

func defaultStateDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return ".astro-soulmate"
	}
	return filepath.Join(home, ".astro-soulmate")
}

func printRelationship(rec relationship.Record) {
	line := fmt.Sprintf("[%s %d/100", rec.StatusLabel, rec.Score)
	if rec.TransientDelta > 0 {
		line += fmt.Sprintf(" +%d", rec.TransientDelta)
	} else if rec.TransientDelta < 0 {
		line += fmt.Sprintf(" %d", rec.TransientDelta)
	}
	fmt.Println(line + "]")
}

func printTranscript(msgs []chatview.Message) {
	for _, m := range msgs {
		prefix := "you"
		if m.Role == chatview.RoleAssistant {
			prefix = "them"
		}
		fmt.Printf("%s: %s\n", prefix, m.Content)
	}
}

func fatal(format string, args ...any) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
