package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/voyantlabs/codegraph/internal/ai"
	"github.com/voyantlabs/codegraph/internal/config"
	"github.com/voyantlabs/codegraph/internal/entrypoints"
	"github.com/voyantlabs/codegraph/internal/flow"
	"github.com/voyantlabs/codegraph/internal/pipeline"
	"github.com/voyantlabs/codegraph/internal/queue"
	"github.com/voyantlabs/codegraph/internal/store"
	"github.com/voyantlabs/codegraph/internal/tools"
	"github.com/voyantlabs/codegraph/internal/watcher"
)

var version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	configPath := flag.String("config", os.Getenv("CODEGRAPH_CONFIG"), "path to YAML config file")
	watch := flag.Bool("watch", false, "poll indexed repositories for file changes")
	flag.Parse()

	if *showVersion {
		fmt.Println("codegraph-mcp", version)
		os.Exit(0)
	}

	settings, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("config err=%v", err)
	}

	s, err := openStore(settings)
	if err != nil {
		log.Fatalf("store open err=%v", err)
	}

	collaborator := buildCollaborator(settings)

	pool := queue.NewPool(s, &queue.Options{
		Workers:      settings.WorkerCount,
		PollInterval: settings.JobPollInterval,
		LockTimeout:  settings.JobLockTimeout,
	})
	registerHandlers(pool, s, settings, collaborator)

	ctx, cancel := context.WithCancel(context.Background())
	pool.Start(ctx)

	if *watch {
		go watcher.New(s, watcher.EnqueueParseJob(s)).Run(ctx)
	}

	srv := tools.NewServer(s, settings)
	runErr := srv.MCPServer().Run(ctx, &mcp.StdioTransport{})

	cancel()
	pool.Stop()
	s.Close()
	if runErr != nil {
		log.Fatalf("server err=%v", runErr)
	}
}

func openStore(settings *config.Settings) (*store.Store, error) {
	if settings.DBPath != "" {
		return store.OpenPath(settings.DBPath)
	}
	return store.Open("codegraph")
}

// buildCollaborator returns the OpenAI-backed collaborator when configured,
// falling back to the confidence-threshold heuristic otherwise.
func buildCollaborator(settings *config.Settings) ai.Collaborator {
	if settings.AIEnabled && settings.AIAPIKey != "" {
		c, err := ai.NewOpenAI(settings.AIAPIKey, settings.AIBaseURL, settings.AIModel, settings.AITimeout)
		if err == nil {
			return c
		}
		slog.Warn("ai.init_failed", "err", err)
	}
	return &ai.Heuristic{}
}

func registerHandlers(pool *queue.Pool, s *store.Store, settings *config.Settings, collaborator ai.Collaborator) {
	pool.Register(store.JobParse, func(ctx context.Context, job *store.Job) error {
		repoPath := queue.PayloadString(job, "repo_path")
		if repoPath == "" {
			return fmt.Errorf("parse job %d missing repo_path", job.ID)
		}
		ix := pipeline.New(s, repoPath, &pipeline.Options{
			MaxFileSizeBytes: settings.MaxFileSizeBytes,
			FailureThreshold: settings.FailureThreshold,
			Workers:          settings.WorkerCount,
			MaxFilesPerBatch: settings.MaxFilesPerBatch,
			ParseTimeout:     settings.ParseTimeout,
		})
		_, err := ix.Run(ctx)
		return err
	})

	pool.Register(store.JobDetectEntryPoints, func(ctx context.Context, job *store.Job) error {
		repoID := queue.PayloadInt64(job, "repo_id")
		if repoID == 0 {
			repoID = job.RepoID
		}
		detector := entrypoints.NewDetector(s, collaborator)
		_, err := detector.Run(ctx, repoID, queue.PayloadBool(job, "force"))
		return err
	})

	pool.Register(store.JobGenerateFlow, func(ctx context.Context, job *store.Job) error {
		epID := queue.PayloadInt64(job, "entry_point_id")
		if epID == 0 {
			return fmt.Errorf("flow job %d missing entry_point_id", job.ID)
		}
		generator := flow.NewGenerator(s, collaborator)
		_, err := generator.Generate(ctx, epID)
		return err
	})
}
