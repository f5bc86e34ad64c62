package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"resume-match-go/internal/config"
	"resume-match-go/internal/storage/models"
	"resume-match-go/internal/types"

	"gorm.io/datatypes"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// MySQL 画像与匹配结果的持久化层
type MySQL struct {
	db  *gorm.DB
	cfg *config.MySQLConfig
}

// NewMySQL 创建MySQL连接并自动迁移表结构
func NewMySQL(cfg *config.MySQLConfig) (*MySQL, error) {
	if cfg == nil {
		return nil, fmt.Errorf("MySQL配置不能为空")
	}

	dsn := fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		cfg.Username, cfg.Password, cfg.Host, cfg.Port, cfg.Database)

	var logLevel logger.LogLevel
	switch cfg.LogLevel {
	case 1:
		logLevel = logger.Silent
	case 2:
		logLevel = logger.Error
	case 3:
		logLevel = logger.Warn
	default:
		logLevel = logger.Info
	}

	gormConfig := &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		Logger:                                   logger.Default.LogMode(logLevel),
		PrepareStmt:                              true,
	}

	db, err := gorm.Open(mysql.Open(dsn), gormConfig)
	if err != nil {
		return nil, fmt.Errorf("连接MySQL失败: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("获取底层 sql.DB 失败: %w", err)
	}
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetimeMinutes) * time.Minute)

	m := &MySQL{db: db, cfg: cfg}
	if err := m.autoMigrateSchema(); err != nil {
		sqlDB.Close()
		return nil, fmt.Errorf("自动迁移数据库结构失败: %w", err)
	}

	return m, nil
}

func (m *MySQL) autoMigrateSchema() error {
	return m.db.AutoMigrate(
		&models.ProfileRecord{},
		&models.MatchRecord{},
	)
}

// DB 返回底层gorm实例
func (m *MySQL) DB() *gorm.DB {
	return m.db
}

// Close 关闭数据库连接
func (m *MySQL) Close() error {
	sqlDB, err := m.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// UpsertProfile 写入或覆盖画像记录。同一DocumentID重复写入时整行覆盖，
// 保证读到的画像始终来自最近一次处理。
func (m *MySQL) UpsertProfile(ctx context.Context, profile *types.Profile, kind string, status string) error {
	if profile == nil {
		return fmt.Errorf("画像不能为空")
	}

	record, err := profileToRecord(profile, kind, status)
	if err != nil {
		return err
	}

	return m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "document_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"kind", "content_hash", "vocabulary_version", "model_version",
			"skills_json", "section_vectors_json", "whole_doc_vector",
			"status", "extracted_at",
		}),
	}).Create(record).Error
}

// GetProfile 按文档ID读取画像，不存在时返回gorm.ErrRecordNotFound
func (m *MySQL) GetProfile(ctx context.Context, documentID string) (*types.Profile, string, error) {
	var record models.ProfileRecord
	if err := m.db.WithContext(ctx).First(&record, "document_id = ?", documentID).Error; err != nil {
		return nil, "", err
	}
	profile, err := recordToProfile(&record)
	if err != nil {
		return nil, "", err
	}
	return profile, record.Status, nil
}

// UpsertMatchResult 写入或更新一条候选人-岗位匹配结果
func (m *MySQL) UpsertMatchResult(ctx context.Context, result *types.MatchResult) error {
	matchedJSON, err := json.Marshal(result.MatchedSkills)
	if err != nil {
		return fmt.Errorf("序列化匹配技能失败: %w", err)
	}
	missingJSON, err := json.Marshal(result.MissingRequiredSkills)
	if err != nil {
		return fmt.Errorf("序列化缺失技能失败: %w", err)
	}

	record := &models.MatchRecord{
		CandidateID:         result.CandidateID,
		JobID:               result.JobID,
		OverallScore:        result.OverallScore,
		SkillOverlapScore:   result.SkillOverlapScore,
		SemanticScore:       result.SemanticSimilarityScore,
		MatchedSkillsJSON:   datatypes.JSON(matchedJSON),
		MissingRequiredJSON: datatypes.JSON(missingJSON),
		Partial:             result.Partial,
		PolicyVersion:       result.PolicyVersion,
		ComputedAt:          result.ComputedAt,
	}

	return m.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "candidate_id"}, {Name: "job_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"overall_score", "skill_overlap_score", "semantic_score",
			"matched_skills_json", "missing_required_json",
			"partial", "policy_version", "computed_at",
		}),
	}).Create(record).Error
}

// ListMatchesForJob 按总分降序返回岗位的匹配记录
func (m *MySQL) ListMatchesForJob(ctx context.Context, jobID string, limit int) ([]models.MatchRecord, error) {
	var records []models.MatchRecord
	q := m.db.WithContext(ctx).
		Where("job_id = ?", jobID).
		Order("overall_score DESC, candidate_id ASC")
	if limit > 0 {
		q = q.Limit(limit)
	}
	if err := q.Find(&records).Error; err != nil {
		return nil, fmt.Errorf("查询岗位匹配记录失败: %w", err)
	}
	return records, nil
}

func profileToRecord(p *types.Profile, kind string, status string) (*models.ProfileRecord, error) {
	skillsJSON, err := json.Marshal(p.Skills)
	if err != nil {
		return nil, fmt.Errorf("序列化技能集失败: %w", err)
	}
	sectionJSON, err := json.Marshal(p.SectionEmbeddings)
	if err != nil {
		return nil, fmt.Errorf("序列化段落向量失败: %w", err)
	}
	wholeJSON, err := json.Marshal(p.WholeDocEmbedding)
	if err != nil {
		return nil, fmt.Errorf("序列化整文向量失败: %w", err)
	}

	return &models.ProfileRecord{
		DocumentID:         p.DocumentID,
		Kind:               kind,
		ContentHash:        p.ContentHash,
		VocabularyVersion:  p.VocabularyVersion,
		ModelVersion:       p.ModelVersion,
		SkillsJSON:         datatypes.JSON(skillsJSON),
		SectionVectorsJSON: datatypes.JSON(sectionJSON),
		WholeDocVector:     datatypes.JSON(wholeJSON),
		Status:             status,
		ExtractedAt:        p.ExtractedAt,
	}, nil
}

func recordToProfile(r *models.ProfileRecord) (*types.Profile, error) {
	p := &types.Profile{
		DocumentID:        r.DocumentID,
		ContentHash:       r.ContentHash,
		VocabularyVersion: r.VocabularyVersion,
		ModelVersion:      r.ModelVersion,
		ExtractedAt:       r.ExtractedAt,
	}
	if len(r.SkillsJSON) > 0 {
		if err := json.Unmarshal(r.SkillsJSON, &p.Skills); err != nil {
			return nil, fmt.Errorf("解析技能集失败: %w", err)
		}
	}
	if len(r.SectionVectorsJSON) > 0 {
		if err := json.Unmarshal(r.SectionVectorsJSON, &p.SectionEmbeddings); err != nil {
			return nil, fmt.Errorf("解析段落向量失败: %w", err)
		}
	}
	if len(r.WholeDocVector) > 0 {
		if err := json.Unmarshal(r.WholeDocVector, &p.WholeDocEmbedding); err != nil {
			return nil, fmt.Errorf("解析整文向量失败: %w", err)
		}
	}
	return p, nil
}
