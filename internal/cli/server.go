package cli

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"kanji-quiz-service/internal/app"
	"kanji-quiz-service/internal/config"
	"kanji-quiz-service/internal/game"
	"kanji-quiz-service/internal/infra/memory"
	pgsource "kanji-quiz-service/internal/infra/postgres"
	redisinfra "kanji-quiz-service/internal/infra/redis"
	"kanji-quiz-service/internal/loader"
	"kanji-quiz-service/internal/reward"
	transport "kanji-quiz-service/internal/transport/http"
)

// NewStartCmd builds the CLI subcommand to start the server.
func NewStartCmd(configPath, port *string) *cobra.Command {
	return &cobra.Command{
		Use:   "start",
		Short: "Start the quiz server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServer(cmd.Context(), *configPath, *port)
		},
	}
}

func runServer(ctx context.Context, configPath, portFlag string) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}

	if cfg.Postgres.URL != "" {
		if err := runMigrationsWithConfig(ctx, cfg); err != nil {
			return err
		}
	}

	finalPort := portFlag
	if finalPort == "" {
		finalPort = cfg.Server.Port
	}
	if finalPort == "" {
		finalPort = "8080"
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
	}
	redisTTL := config.TTLDuration(cfg.Redis.TTL, 10*time.Minute)

	var pool *pgxpool.Pool
	if cfg.Postgres.URL != "" {
		pool, err = pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			return err
		}
	}

	var source memory.RowSource = sampleContent()
	if pool != nil {
		source = pgsource.NewRowSource(pool)
	}

	contentTTL := config.TTLDuration(cfg.Content.TTL, 10*time.Minute)
	var questions app.QuestionRepository
	var cards app.CardRepository
	if redisClient != nil {
		repo := redisinfra.NewContentRepository(redisClient, source, contentTTL)
		questions, cards = repo, repo
	} else {
		repo := memory.NewContentRepository(source, contentTTL)
		questions, cards = repo, repo
	}

	var store app.SessionRepository
	var kv reward.KV
	if redisClient != nil {
		store = redisinfra.NewSessionStore(redisClient, redisTTL)
		kv = redisinfra.NewKVStore(redisClient)
	} else {
		store = memory.NewSessionStore()
		kv = memory.NewKVStore()
	}

	rules := game.DefaultRules()
	if cfg.Game.QuestionSeconds > 0 {
		rules.QuestionTime = time.Duration(cfg.Game.QuestionSeconds) * time.Second
	}
	if cfg.Game.PointsPerCorrect > 0 {
		rules.PointsPerCorrect = cfg.Game.PointsPerCorrect
	}
	if cfg.Game.NormalPoolSize > 0 {
		rules.NormalPoolSize = cfg.Game.NormalPoolSize
	}
	if cfg.Game.ComboBonus > 0 {
		rules.ComboBonus = cfg.Game.ComboBonus
	}

	rewardCfg := reward.DefaultConfig()
	if cfg.Game.RewardMinStars > 0 {
		rewardCfg.MinStars = cfg.Game.RewardMinStars
	}

	countdown := game.NewStepCountdown(config.TTLDuration(cfg.Game.CountdownStep, 700*time.Millisecond))
	service := app.NewGameService(store, questions, cards, kv, rules, rewardCfg, countdown)
	wsHandler := transport.NewWSHandler(service)

	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("ok"))
	})
	mux.HandleFunc("/ws", wsHandler.ServeWS)

	server := &http.Server{
		Addr:         ":" + finalPort,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Printf("starting kanji quiz service on :%s", finalPort)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Printf("failed to start server: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-stop:
		log.Println("shutting down server...")
	case <-ctx.Done():
		log.Println("context canceled, shutting down server...")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}

// sampleContent provides a minimal question/card set for running without
// Postgres; swap in the database-backed source in production.
func sampleContent() *memory.StaticRowSource {
	return &memory.StaticRowSource{
		Question: []loader.Row{
			{"id": "q1", "question": "【猫】の読みは？", "answer": "ねこ", "alt": "ネコ|猫", "source": "N5"},
			{"id": "q2", "question": "【犬】の読みは？", "answer": "いぬ", "source": "N5"},
			{"id": "q3", "question": "【空】の読みは？", "answer": "そら", "alt": "くう", "source": "N5"},
			{"id": "q4", "question": "【山】の読みは？", "answer": "やま", "source": "N5"},
			{"id": "q5", "question": "【川】の読みは？", "answer": "かわ", "source": "N5"},
		},
		Card: []loader.Row{
			{"id": "c1", "rarity": "3", "name": "銅のカード", "weight": "3"},
			{"id": "c2", "rarity": "4", "name": "銀のカード", "weight": "2"},
			{"id": "c3", "rarity": "5", "name": "金のカード", "weight": "1"},
		},
	}
}
