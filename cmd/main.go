package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"docsync-rag/internal/config"
	"docsync-rag/internal/embedding"
	"docsync-rag/internal/helper"
	"docsync-rag/internal/indexer"
	"docsync-rag/internal/llmservice"
	"docsync-rag/internal/models"
	"docsync-rag/internal/rag"
	"docsync-rag/internal/source"
	"docsync-rag/internal/state"
	"docsync-rag/internal/syncer"
	"docsync-rag/internal/vectorstore"
)

const defaultConfigPath = "./configs/config.yaml"

func main() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	zerolog.SetGlobalLevel(zerolog.InfoLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.RFC3339})

	_ = godotenv.Load()

	configPath := flag.String("config", defaultConfigPath, "Path to the YAML config file")
	statePath := flag.String("state", "", "Override the processed-files state path")
	runSync := flag.Bool("sync", false, "Run the sync poll loop")
	once := flag.Bool("once", false, "Run a single sync cycle and exit")
	query := flag.String("query", "", "Answer a single question and exit")
	chat := flag.Bool("chat", false, "Interactive question/answer session")
	verbose := flag.Bool("verbose", false, "Enable debug logging")
	flag.Parse()

	if *verbose {
		zerolog.SetGlobalLevel(zerolog.DebugLevel)
	}

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		log.Fatal().Err(err).Msg("Error loading config")
	}
	if *statePath != "" {
		cfg.Sync.StatePath = *statePath
	}

	ctx := context.Background()

	switch {
	case *runSync:
		runSyncLoop(ctx, cfg)
	case *once:
		engine, store := buildEngine(ctx, cfg)
		defer store.Close()
		report, err := engine.Sync(ctx)
		if err != nil {
			log.Fatal().Err(err).Msg("Sync failed")
		}
		helper.PrettyPrint(report)
	case *query != "":
		svc, store := buildRAG(ctx, cfg)
		defer store.Close()
		printResponse(svc.Query(ctx, *query))
	case *chat:
		svc, store := buildRAG(ctx, cfg)
		defer store.Close()
		runChat(ctx, svc)
	default:
		fmt.Println("Usage: docsync-rag [-config path] -sync | -once | -chat | -query \"question\"")
		os.Exit(1)
	}
}

func buildEngine(ctx context.Context, cfg *config.Config) (*syncer.Engine, vectorstore.Store) {
	store, err := vectorstore.New(ctx, &cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing vector store")
	}

	embedder, err := embedding.NewEmbedder(ctx, &cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	src := buildSource(ctx, cfg)
	ix := indexer.NewIndexer(embedder, store, cfg.RAG.ChunkSize, cfg.RAG.ChunkOverlap, cfg.RAG.UpsertDelay())
	st := state.NewStore(cfg.Sync.StatePath)
	return syncer.NewEngine(st, src, store, ix), store
}

func buildSource(ctx context.Context, cfg *config.Config) source.Source {
	switch cfg.Source.Type {
	case "drive":
		src, err := source.NewDriveSource(ctx, cfg.Source.CredentialsFile, cfg.Source.FolderID)
		if err != nil {
			log.Fatal().Err(err).Msg("Error initializing drive source")
		}
		return src
	default:
		return source.NewLocalSource(cfg.Source.Path)
	}
}

func buildRAG(ctx context.Context, cfg *config.Config) (*rag.RAG, vectorstore.Store) {
	store, err := vectorstore.New(ctx, &cfg.Store)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing vector store")
	}

	embedder, err := embedding.NewEmbedder(ctx, &cfg.EmbedLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing embedder")
	}

	chatClient, err := llmservice.NewClient(&cfg.ChatLLM)
	if err != nil {
		log.Fatal().Err(err).Msg("Error initializing chat client")
	}
	return rag.NewRAG(embedder, store, chatClient, cfg.RAG.TopK), store
}

// runSyncLoop alternates sync cycles with an interruptible wait. A
// cycle in flight always runs to completion; "pull" and "q" take
// effect between cycles.
func runSyncLoop(ctx context.Context, cfg *config.Config) {
	engine, store := buildEngine(ctx, cfg)
	defer store.Close()

	input := make(chan string)
	go readInput(input)

	for {
		if _, err := engine.Sync(ctx); err != nil {
			log.Fatal().Err(err).Msg("Sync failed")
		}
		fmt.Println("Type 'pull' to run update immediately or 'q' to quit:")
		if !waitOrPull(input, cfg.Sync.Interval()) {
			fmt.Println("Exiting...")
			return
		}
	}
}

func readInput(input chan<- string) {
	scanner := bufio.NewScanner(os.Stdin)
	for scanner.Scan() {
		input <- strings.ToLower(strings.TrimSpace(scanner.Text()))
	}
	close(input)
}

// waitOrPull blocks until the interval elapses or the user types a
// command. It returns false when the loop should stop.
func waitOrPull(input <-chan string, interval time.Duration) bool {
	timer := time.NewTimer(interval)
	defer timer.Stop()
	for {
		select {
		case cmd, ok := <-input:
			if !ok {
				return false
			}
			switch cmd {
			case "pull":
				return true
			case "q", "quit":
				return false
			}
		case <-timer.C:
			return true
		}
	}
}

func runChat(ctx context.Context, svc *rag.RAG) {
	fmt.Println("Document Chat. Type 'exit' to quit.")
	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("Your Question> ")
		if !scanner.Scan() {
			break
		}
		question := strings.TrimSpace(scanner.Text())
		if question == "" {
			continue
		}
		if strings.EqualFold(question, "exit") || strings.EqualFold(question, "quit") {
			break
		}
		printResponse(svc.Query(ctx, question))
	}
}

func printResponse(response models.PromptResponse) {
	if response.Source != "" {
		fmt.Printf("\nSource: %s\n", response.Source)
	}
	fmt.Printf("\nAnswer: %s\n\n", response.Content)
}
