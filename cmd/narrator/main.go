package main

import (
	"bufio"
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/KirkDiggler/dnd-narrator/internal/catalog"
	"github.com/KirkDiggler/dnd-narrator/internal/clients/dnd5e"
	"github.com/KirkDiggler/dnd-narrator/internal/clients/oracle"
	"github.com/KirkDiggler/dnd-narrator/internal/config"
	"github.com/KirkDiggler/dnd-narrator/internal/continuity"
	"github.com/KirkDiggler/dnd-narrator/internal/dice"
	"github.com/KirkDiggler/dnd-narrator/internal/entities"
	"github.com/KirkDiggler/dnd-narrator/internal/events"
	"github.com/KirkDiggler/dnd-narrator/internal/history"
	"github.com/KirkDiggler/dnd-narrator/internal/interpreter"
	"github.com/KirkDiggler/dnd-narrator/internal/narrative"
	"github.com/KirkDiggler/dnd-narrator/internal/observability"
	"github.com/KirkDiggler/dnd-narrator/internal/repositories/records"
	"github.com/KirkDiggler/dnd-narrator/internal/rules"
	"github.com/KirkDiggler/dnd-narrator/internal/services/session"
	"github.com/KirkDiggler/dnd-narrator/internal/triggers"
)

func main() {
	sessionID := flag.String("session", "local", "session id")
	characterPath := flag.String("character", "", "path to a character sheet JSON, a pregenerated rogue when empty")
	flag.Parse()

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	tp, err := observability.InitTracing(ctx, observability.Config{
		ServiceName: cfg.Tracing.ServiceName,
		Environment: cfg.Tracing.Environment,
		Endpoint:    cfg.Tracing.Endpoint,
		Enabled:     cfg.Tracing.Enabled,
	})
	if err != nil {
		log.Fatalf("Failed to init tracing: %v", err)
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Printf("Failed to shut down tracing: %v", shutdownErr)
		}
	}()

	repo, redisClient := openRecords(ctx, cfg.Redis.URL)
	if redisClient != nil {
		defer func() {
			if closeErr := redisClient.Close(); closeErr != nil {
				log.Printf("Error closing Redis connection: %v", closeErr)
			}
		}()
	}

	character, err := loadCharacter(*characterPath)
	if err != nil {
		log.Fatalf("Failed to load character: %v", err)
	}

	service, err := buildService(ctx, cfg, repo)
	if err != nil {
		log.Fatalf("Failed to build session service: %v", err)
	}

	loop := &repl{
		service:   service,
		sessionID: *sessionID,
		character: character,
		out:       os.Stdout,
	}

	fmt.Printf("Session %s started for %s. Type /help for commands, CTRL-D to exit.\n", loop.sessionID, loop.character.Name)

	lines := make(chan string)
	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(os.Stdin)
		for scanner.Scan() {
			lines <- scanner.Text()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			fmt.Println("Shutting down...")
			return
		case line, ok := <-lines:
			if !ok {
				return
			}
			if quit := loop.handle(ctx, line); quit {
				return
			}
		}
	}
}

func openRecords(ctx context.Context, redisURL string) (records.Repository, *redis.Client) {
	if redisURL == "" {
		log.Println("No REDIS_URL found, keeping records in memory")
		return records.NewInMemoryRepository(nil), nil
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		log.Printf("Failed to parse Redis URL: %v", err)
		log.Println("Falling back to in-memory records")
		return records.NewInMemoryRepository(nil), nil
	}

	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		log.Printf("Failed to connect to Redis: %v", err)
		log.Println("Falling back to in-memory records")
		_ = client.Close()
		return records.NewInMemoryRepository(nil), nil
	}

	log.Println("Using Redis for records")
	return records.NewRedis(client, nil), client
}

func buildService(ctx context.Context, cfg *config.Config, repo records.Repository) (session.Service, error) {
	dndClient, err := dnd5e.New(&dnd5e.Config{
		HttpClient: &http.Client{Timeout: cfg.DND5E.Timeout},
		BaseURL:    cfg.DND5E.BaseURL,
	})
	if err != nil {
		return nil, fmt.Errorf("dnd5e client: %w", err)
	}

	oracleClient, err := oracle.New(&oracle.Config{
		APIKey:    cfg.Oracle.APIKey,
		BaseURL:   cfg.Oracle.BaseURL,
		Model:     cfg.Oracle.Model,
		MaxTokens: cfg.Oracle.MaxTokens,
		Timeout:   cfg.Oracle.Timeout,
	})
	if err != nil {
		return nil, fmt.Errorf("oracle client: %w", err)
	}

	table := rules.NewDifficultyTable(cfg.Rules.Tiers())

	cat := newCatalog(ctx, dndClient, table)

	extractor, err := loadExtractor(cfg.History.LexiconPath)
	if err != nil {
		return nil, err
	}
	analyzer := history.NewAnalyzer(&history.AnalyzerConfig{
		Extractor: extractor,
		Window:    cfg.History.Window,
	})

	bus := events.NewBus()
	records.NewSink(&records.SinkConfig{Repository: repo}).Attach(bus)

	return session.NewService(&session.ServiceConfig{
		Interpreter: interpreter.New(&interpreter.Config{
			Oracle:  oracleClient,
			Catalog: cat,
		}),
		Resolver: rules.NewResolver(&rules.ResolverConfig{
			Roller: dice.NewRandomRoller(),
			Table:  table,
		}),
		Generator: events.NewGenerator(&events.GeneratorConfig{
			Oracle:   oracleClient,
			Analyzer: analyzer,
			Linker:   continuity.NewLinker(&continuity.LinkerConfig{Extractor: extractor}),
		}),
		Arbiter: triggers.NewArbiter(&triggers.ArbiterConfig{
			Analyzer:          analyzer,
			RateLimitWindow:   cfg.Triggers.RateLimitWindow,
			PatternWindow:     cfg.Triggers.PatternWindow,
			StorylineWindow:   cfg.Triggers.StorylineWindow,
			MinPatternActions: cfg.Triggers.MinPatternActions,
		}),
		Bus:        bus,
		MaxHistory: cfg.History.MaxEvents,
	}), nil
}

// newCatalog builds the rules catalog and warms it. A failed warm-up is not fatal, categories
// then load on first use.
func newCatalog(ctx context.Context, source dnd5e.Client, table *rules.DifficultyTable) catalog.Catalog {
	cat := catalog.New(ctx, &catalog.Config{
		Source: source,
		Local: []*catalog.LocalCategory{{
			Name:        "difficulty-classes",
			Description: "Difficulty tiers and their check DCs",
			Entries:     table.Entries(),
		}},
	})

	if err := cat.Refresh(ctx); err != nil {
		log.Printf("Failed to warm rules catalog: %v, loading categories lazily", err)
	}
	return cat
}

func loadExtractor(path string) (history.TextSignalExtractor, error) {
	if path == "" {
		return history.NewKeywordExtractor(nil), nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open lexicon: %w", err)
	}
	defer f.Close()

	lex, err := history.LoadLexicon(f)
	if err != nil {
		return nil, fmt.Errorf("load lexicon %s: %w", path, err)
	}
	log.Printf("Loaded lexicon from %s", path)
	return history.NewKeywordExtractor(lex), nil
}

type repl struct {
	service   session.Service
	sessionID string
	character *entities.CharacterSheet
	location  string
	quest     session.SceneInput
	out       io.Writer
}

const helpText = `Anything not starting with / is a player action.
  /go <location>            move the party
  /emit <UNIT> [text]       emit a narrative unit
  /quest <stage> <0-100>    set the quest stage and progress, no argument clears it
  /triggers                 evaluate story triggers
  /end-dialogue             leave the conversation
  /end-combat               leave combat
  /complete-quest           close the main quest
  /state                    print the session state
  /reset                    forget the session
  /quit                     exit`

// handle runs one input line and reports whether the loop should stop
func (r *repl) handle(ctx context.Context, line string) bool {
	line = strings.TrimSpace(line)
	if line == "" {
		return false
	}

	if !strings.HasPrefix(line, "/") {
		outcome, err := r.service.ProcessAction(ctx, r.sessionID, &session.ProcessActionInput{
			Action:    line,
			Character: r.character,
			Location:  r.location,
		})
		r.print(outcome, err)
		return false
	}

	cmd, arg, _ := strings.Cut(line[1:], " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "help":
		fmt.Fprintln(r.out, helpText)
	case "quit", "exit":
		return true
	case "go":
		r.location = arg
		fmt.Fprintf(r.out, "Location set to %q\n", r.location)
	case "emit":
		unitName, content, _ := strings.Cut(arg, " ")
		unit, err := narrative.ParseUnitType(unitName)
		if err != nil {
			r.print(nil, err)
			return false
		}
		tr, err := r.service.EmitUnit(ctx, r.sessionID, &session.EmitUnitInput{
			Unit:     unit,
			Content:  strings.TrimSpace(content),
			Location: r.location,
		})
		r.print(tr, err)
	case "quest":
		stage, progress, err := parseQuest(arg)
		if err != nil {
			r.print(nil, err)
			return false
		}
		r.setQuest(stage, progress)
		fmt.Fprintf(r.out, "Quest stage %d %q at %d%%\n", r.quest.QuestStageIndex, stage, progress)
	case "triggers":
		scene := r.quest
		scene.Location = r.location
		outcome, err := r.service.EvaluateTriggers(ctx, r.sessionID, &scene)
		r.print(outcome, err)
	case "end-dialogue":
		r.print(r.service.EndDialogue(ctx, r.sessionID))
	case "end-combat":
		r.print(r.service.EndCombat(ctx, r.sessionID))
	case "complete-quest":
		r.print(r.service.CompleteQuest(ctx, r.sessionID))
	case "state":
		r.print(r.service.State(ctx, r.sessionID))
	case "reset":
		err := r.service.ResetSession(ctx, r.sessionID)
		r.print(map[string]bool{"reset": err == nil}, err)
	default:
		fmt.Fprintf(r.out, "Unknown command /%s, try /help\n", cmd)
	}
	return false
}

// parseQuest splits "<stage> <progress>", an empty argument clears the quest
func parseQuest(arg string) (string, int, error) {
	if arg == "" {
		return "", 0, nil
	}
	idx := strings.LastIndex(arg, " ")
	if idx < 0 {
		return "", 0, fmt.Errorf("usage: /quest <stage> <progress>")
	}
	var progress int
	if _, err := fmt.Sscanf(arg[idx+1:], "%d", &progress); err != nil {
		return "", 0, fmt.Errorf("progress must be a number: %w", err)
	}
	return strings.TrimSpace(arg[:idx]), progress, nil
}

// setQuest records the quest position. Moving to a new stage advances the stage index, a
// blank stage clears the quest.
func (r *repl) setQuest(stage string, progress int) {
	switch {
	case stage == "":
		r.quest = session.SceneInput{}
		return
	case !r.quest.HasQuest:
		r.quest.QuestStageIndex = 0
	case stage != r.quest.QuestStage:
		r.quest.QuestStageIndex++
	}
	r.quest.QuestStage = stage
	r.quest.StoryProgress = progress
	r.quest.HasQuest = true
}

func (r *repl) print(v any, err error) {
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		fmt.Fprintf(r.out, "error: %v\n", err)
		return
	}
	fmt.Fprintln(r.out, string(data))
}
