package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"resume-match-go/internal/config"
	"resume-match-go/internal/embedder"
	"resume-match-go/internal/extractor"
	"resume-match-go/internal/logger"
	"resume-match-go/internal/matcher"
	"resume-match-go/internal/processor"
	"resume-match-go/internal/segmenter"
	"resume-match-go/internal/skill"
	"resume-match-go/internal/storage"
	"resume-match-go/internal/types"
	"resume-match-go/internal/vocab"

	"github.com/spf13/pflag"
	"gorm.io/gorm"
)

// 命令行参数定义
var (
	configPath  = pflag.String("config", "config.yaml", "配置文件路径")
	command     = pflag.String("cmd", "worker", "执行的命令: profile=本地文档画像, match=候选人-岗位匹配, rank=岗位候选人排名, worker=启动画像worker")
	filePath    = pflag.String("file", "", "profile命令: 本地文档路径 (.pdf/.docx)")
	candidateID = pflag.String("candidate", "", "match命令: 候选人文档ID")
	jobID       = pflag.String("job", "", "match/rank命令: 岗位ID")
	requiredCSV = pflag.String("required", "", "match命令: 必需技能ID列表，逗号分隔")
	limit       = pflag.Int("limit", 20, "rank命令: 返回条数上限")
)

func main() {
	pflag.Parse()

	cfg, err := config.LoadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "加载配置失败: %v\n", err)
		os.Exit(1)
	}

	logger.Init(logger.Config{
		Level:        cfg.Logger.Level,
		Format:       cfg.Logger.Format,
		TimeFormat:   cfg.Logger.TimeFormat,
		ReportCaller: cfg.Logger.ReportCaller,
	})

	// 评分权重或词表路径不合法时必须在启动期失败，而不是静默算出错误分数
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "配置校验失败: %v\n", err)
		os.Exit(1)
	}

	switch *command {
	case "profile":
		handleProfileCommand(cfg)
	case "match":
		handleMatchCommand(cfg)
	case "rank":
		handleRankCommand(cfg)
	case "worker":
		handleWorkerCommand(cfg)
	default:
		fmt.Fprintf(os.Stderr, "错误: 未知命令 '%s'。支持的命令: profile, match, rank, worker\n", *command)
		pflag.Usage()
		os.Exit(1)
	}
}

// buildProcessor 组装画像流水线。embedder为nil时生成无向量的部分画像。
func buildProcessor(ctx context.Context, cfg *config.Config, embedSvc *embedder.Service) (*processor.ProfileProcessor, error) {
	vocabulary, err := vocab.Load(cfg.Vocabulary.Path)
	if err != nil {
		return nil, err
	}

	pdfExtractor, err := extractor.NewEinoPDFExtractor(ctx,
		extractor.WithPDFLogger(logger.Logger.With().Str("component", "pdf_extractor").Logger()))
	if err != nil {
		return nil, fmt.Errorf("初始化PDF解析器失败: %w", err)
	}
	docxExtractor := extractor.NewDocxExtractor(
		extractor.WithDocxLogger(logger.Logger.With().Str("component", "docx_extractor").Logger()))
	dispatcher := extractor.NewFormatDispatcher(pdfExtractor, docxExtractor)

	skillExtractor := skill.NewExtractor(vocabulary, skill.NewSnowballNormalizer(), cfg.Scoring.FuzzyThreshold)

	compOpts := []processor.ComponentOpt{
		processor.WithExtractor(dispatcher),
		processor.WithSegmenter(segmenter.New()),
		processor.WithSkillExtractor(skillExtractor),
	}
	if embedSvc != nil {
		compOpts = append(compOpts, processor.WithEmbedder(embedSvc))
	}

	return processor.NewProfileProcessor(compOpts,
		processor.WithProcessorLogger(logger.Ctx(ctx).With().Str("component", "processor").Logger()),
		processor.WithVocabularyVersion(vocabulary.Version()),
	)
}

// buildEmbedderService 按配置创建向量服务。未配置API则返回nil（降级为纯技能匹配）。
func buildEmbedderService(cfg *config.Config, cache embedder.VectorCache) (*embedder.Service, error) {
	if cfg.Embedding.APIKey == "" || cfg.Embedding.BaseURL == "" {
		return nil, nil
	}

	client, err := embedder.NewHTTPEmbedder(cfg.Embedding,
		embedder.WithEmbedderLogger(logger.Logger.With().Str("component", "embedder").Logger()))
	if err != nil {
		return nil, err
	}

	opts := []embedder.ServiceOption{}
	if cache != nil {
		opts = append(opts, embedder.WithVectorCache(cache))
	}
	return embedder.NewService(client, cfg.Embedding.Model, cfg.Embedding.MaxInputTokens, opts...)
}

func handleProfileCommand(cfg *config.Config) {
	if *filePath == "" {
		fmt.Fprintln(os.Stderr, "错误: profile命令需要 --file 参数")
		os.Exit(1)
	}

	ctx := logger.WithContext(context.Background())

	var format types.DocumentFormat
	switch strings.ToLower(filepath.Ext(*filePath)) {
	case ".pdf":
		format = types.FormatPDF
	case ".docx":
		format = types.FormatDOCX
	default:
		fmt.Fprintf(os.Stderr, "错误: 不支持的文档格式 '%s'\n", filepath.Ext(*filePath))
		os.Exit(1)
	}

	content, err := os.ReadFile(*filePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "读取文件失败: %v\n", err)
		os.Exit(1)
	}

	embedSvc, err := buildEmbedderService(cfg, embedder.NewMemoryVectorCache())
	if err != nil {
		logger.Warn().Err(err).Msg("初始化向量服务失败，画像不含向量")
		embedSvc = nil
	}

	proc, err := buildProcessor(ctx, cfg, embedSvc)
	if err != nil {
		logger.Fatal().Err(err).Msg("组装画像流水线失败")
	}

	profile, err := proc.BuildProfile(ctx, types.RawDocument{
		DocumentID: filepath.Base(*filePath),
		Format:     format,
		Content:    content,
	})
	if err != nil && profile == nil {
		logger.Fatal().Err(err).Msg("画像构建失败")
	}
	if err != nil {
		logger.Warn().Err(err).Msg("画像为部分结果")
	}

	printJSON(profile)
}

func handleMatchCommand(cfg *config.Config) {
	if *candidateID == "" || *jobID == "" {
		fmt.Fprintln(os.Stderr, "错误: match命令需要 --candidate 和 --job 参数")
		os.Exit(1)
	}

	ctx := context.Background()

	db, err := storage.NewMySQL(&cfg.MySQL)
	if err != nil {
		logger.Fatal().Err(err).Msg("连接MySQL失败")
	}
	defer db.Close()

	vocabulary, err := vocab.Load(cfg.Vocabulary.Path)
	if err != nil {
		logger.Fatal().Err(err).Msg("加载技能词表失败")
	}

	candidateProfile, _, err := db.GetProfile(ctx, *candidateID)
	if err != nil {
		fatalProfileLookup("候选人", *candidateID, err)
	}
	jobProfile, _, err := db.GetProfile(ctx, *jobID)
	if err != nil {
		fatalProfileLookup("岗位", *jobID, err)
	}

	var required []string
	if *requiredCSV != "" {
		for _, id := range strings.Split(*requiredCSV, ",") {
			if id = strings.TrimSpace(id); id != "" {
				required = append(required, id)
			}
		}
	}

	m := matcher.New(vocabulary, cfg.Scoring)
	result := m.Match(candidateProfile, jobProfile, required)

	if err := db.UpsertMatchResult(ctx, result); err != nil {
		logger.Error().Err(err).Msg("保存匹配结果失败")
	}

	printJSON(result)
}

func handleRankCommand(cfg *config.Config) {
	if *jobID == "" {
		fmt.Fprintln(os.Stderr, "错误: rank命令需要 --job 参数")
		os.Exit(1)
	}

	db, err := storage.NewMySQL(&cfg.MySQL)
	if err != nil {
		logger.Fatal().Err(err).Msg("连接MySQL失败")
	}
	defer db.Close()

	records, err := db.ListMatchesForJob(context.Background(), *jobID, *limit)
	if err != nil {
		logger.Fatal().Err(err).Msg("查询岗位匹配记录失败")
	}
	printJSON(records)
}

func handleWorkerCommand(cfg *config.Config) {
	ctx, cancel := context.WithCancel(logger.WithContext(context.Background()))
	defer cancel()

	store, err := storage.NewStorage(ctx, cfg, *logger.Ctx(ctx))
	if err != nil {
		logger.Fatal().Err(err).Msg("初始化存储层失败")
	}
	defer store.Close()

	if store.RabbitMQ == nil {
		logger.Fatal().Msg("worker命令需要配置RabbitMQ")
	}
	if err := store.SetupMessageTopology(&cfg.RabbitMQ); err != nil {
		logger.Fatal().Err(err).Msg("声明消息拓扑失败")
	}

	var cache embedder.VectorCache
	if store.Redis != nil {
		cache = storage.NewRedisVectorCache(store.Redis, cfg.Embedding.CacheTTL())
	}
	embedSvc, err := buildEmbedderService(cfg, cache)
	if err != nil {
		logger.Warn().Err(err).Msg("初始化向量服务失败，所有画像降级为部分结果")
		embedSvc = nil
	}

	proc, err := buildProcessor(ctx, cfg, embedSvc)
	if err != nil {
		logger.Fatal().Err(err).Msg("组装画像流水线失败")
	}

	var deduper processor.HashDeduper = noopDeduper{}
	if store.Redis != nil {
		deduper = store.Redis
	}

	service := processor.NewProfileService(
		proc,
		store.MinIO,
		store.MySQL,
		deduper,
		store.RabbitMQ,
		cfg.RabbitMQ,
		*logger.Ctx(ctx),
	)

	workers := cfg.RabbitMQ.Workers
	if workers <= 0 {
		workers = 1
	}

	stops := make([]chan<- struct{}, 0, workers)
	for i := 0; i < workers; i++ {
		stop, err := store.RabbitMQ.StartConsumer(cfg.RabbitMQ.ProfilePendingQueue, cfg.RabbitMQ.PrefetchCount,
			func(body []byte) bool {
				return service.HandleTask(ctx, body)
			})
		if err != nil {
			logger.Fatal().Err(err).Msg("启动消费者失败")
		}
		stops = append(stops, stop)
	}

	logger.Info().Int("workers", workers).Str("queue", cfg.RabbitMQ.ProfilePendingQueue).Msg("画像worker已启动")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	logger.Info().Msg("收到退出信号，停止消费")
	for _, stop := range stops {
		close(stop)
	}
}

// noopDeduper Redis缺失时的去重降级：永远当作未见过
type noopDeduper struct{}

func (noopDeduper) CheckAndAddDocumentHash(context.Context, string) (bool, error) {
	return false, nil
}

func (noopDeduper) RemoveDocumentHash(context.Context, string) error {
	return nil
}

func fatalProfileLookup(role, id string, err error) {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		fmt.Fprintf(os.Stderr, "错误: %s画像不存在: %s\n", role, id)
		os.Exit(1)
	}
	logger.Fatal().Err(err).Str("document_id", id).Msg("读取画像失败")
}

func printJSON(v interface{}) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		logger.Fatal().Err(err).Msg("序列化输出失败")
	}
	fmt.Println(string(data))
}
