package processor

import (
	"context"
	"encoding/json"
	"errors"

	"resume-match-go/internal/config"
	"resume-match-go/internal/embedder"
	"resume-match-go/internal/types"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// 画像状态。PARTIAL表示技能可用但向量缺失，可稍后重试补齐。
const (
	ProfileStatusCompleted = "COMPLETED"
	ProfileStatusPartial   = "PARTIAL"
	ProfileStatusFailed    = "FAILED"
)

// 任务种类
const (
	TaskKindCandidate = "candidate"
	TaskKindJob       = "job"
)

// ProfileTask 平台投递到画像队列的任务消息
type ProfileTask struct {
	DocumentID string               `json:"document_id"`
	ObjectKey  string               `json:"object_key,omitempty"` // 候选人文档在对象存储中的键
	Format     types.DocumentFormat `json:"format,omitempty"`
	Kind       string               `json:"kind"`          // candidate | job
	Job        *types.JobPosting    `json:"job,omitempty"` // Kind=job时的内联岗位字段
}

// ProfileReadyEvent 画像完成事件
type ProfileReadyEvent struct {
	EventID           string `json:"event_id"`
	DocumentID        string `json:"document_id"`
	Kind              string `json:"kind"`
	Status            string `json:"status"`
	ContentHash       string `json:"content_hash"`
	VocabularyVersion string `json:"vocabulary_version"`
	ModelVersion      string `json:"model_version"`
}

// ProfileService 异步画像服务：消费画像任务、执行流水线、落库并发布完成事件。
// 火并忘语义：文档上传永远不被NLP延迟阻塞；同文档重复投递以最后写入者为准。
type ProfileService struct {
	processor *ProfileProcessor
	source    DocumentSource
	store     ProfileStore
	deduper   HashDeduper
	publisher EventPublisher
	cfg       config.RabbitMQConfig
	logger    zerolog.Logger
}

// NewProfileService 创建画像服务
func NewProfileService(
	proc *ProfileProcessor,
	source DocumentSource,
	store ProfileStore,
	deduper HashDeduper,
	publisher EventPublisher,
	cfg config.RabbitMQConfig,
	logger zerolog.Logger,
) *ProfileService {
	return &ProfileService{
		processor: proc,
		source:    source,
		store:     store,
		deduper:   deduper,
		publisher: publisher,
		cfg:       cfg,
		logger:    logger,
	}
}

// HandleTask 处理单条画像任务。返回值表示是否应当ack：
// 业务性失败（坏文档）ack丢弃，基础设施失败nack等待重投。
func (s *ProfileService) HandleTask(ctx context.Context, body []byte) bool {
	var task ProfileTask
	if err := json.Unmarshal(body, &task); err != nil {
		s.logger.Error().Err(err).Msg("画像任务消息格式非法，丢弃")
		return true
	}

	log := s.logger.With().Str("document_id", task.DocumentID).Str("kind", task.Kind).Logger()

	var profile *types.Profile
	var buildErr error
	var dedupHash string

	switch task.Kind {
	case TaskKindJob:
		if task.Job == nil {
			log.Error().Msg("岗位任务缺少job字段，丢弃")
			return true
		}
		profile, buildErr = s.processor.BuildJobProfile(ctx, *task.Job)

	case TaskKindCandidate:
		content, err := s.source.FetchDocument(ctx, task.ObjectKey)
		if err != nil {
			log.Error().Err(NewFetchError(task.DocumentID, err.Error())).
				Str("object_key", task.ObjectKey).Msg("下载文档失败，重投")
			return false
		}

		hash := ContentHash(content)
		seen, err := s.deduper.CheckAndAddDocumentHash(ctx, hash)
		if err != nil {
			// 去重只是省钱手段，Redis故障时照常处理
			log.Warn().Err(err).Msg("哈希去重检查失败，继续处理")
		} else if seen {
			log.Info().Str("content_hash", hash).Msg("文档内容已处理过，跳过")
			return true
		} else {
			dedupHash = hash
		}

		profile, buildErr = s.processor.BuildProfile(ctx, types.RawDocument{
			DocumentID: task.DocumentID,
			Format:     task.Format,
			Content:    content,
		})

	default:
		log.Error().Msg("未知任务种类，丢弃")
		return true
	}

	status := ProfileStatusCompleted
	if buildErr != nil {
		if profile == nil {
			// 提取失败等硬错误：无画像可落，交给平台记录失败并决定重试
			log.Error().Err(buildErr).Msg("画像构建失败")
			return true
		}
		if errors.Is(buildErr, embedder.ErrEmbeddingUnavailable) {
			// 向量缺失：落部分画像，匹配侧自动降级为纯技能评分
			status = ProfileStatusPartial
			log.Warn().Err(buildErr).Msg("画像降级为部分结果")
		} else {
			status = ProfileStatusFailed
		}
	}

	if err := s.store.UpsertProfile(ctx, profile, task.Kind, status); err != nil {
		// 撤销去重登记：画像没落库，重投的同内容消息不能被跳过
		if dedupHash != "" {
			if rmErr := s.deduper.RemoveDocumentHash(ctx, dedupHash); rmErr != nil {
				log.Warn().Err(rmErr).Str("content_hash", dedupHash).Msg("撤销哈希登记失败")
			}
		}
		log.Error().Err(NewStoreError(task.DocumentID, err.Error())).Msg("画像落库失败，重投")
		return false
	}

	event := ProfileReadyEvent{
		EventID:           uuid.NewString(),
		DocumentID:        profile.DocumentID,
		Kind:              task.Kind,
		Status:            status,
		ContentHash:       profile.ContentHash,
		VocabularyVersion: profile.VocabularyVersion,
		ModelVersion:      profile.ModelVersion,
	}
	if err := s.publisher.PublishJSON(ctx, s.cfg.ProfileEventsExchange, s.cfg.ReadyRoutingKey, event, true); err != nil {
		// 画像已落库，事件发布失败不值得重算整条流水线
		log.Warn().Err(NewPublishError(task.DocumentID, err.Error())).Msg("发布画像完成事件失败")
	}

	log.Info().Str("status", status).Int("skills", len(profile.Skills)).Msg("画像任务处理完成")
	return true
}
