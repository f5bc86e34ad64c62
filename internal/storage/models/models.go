package models

import (
	"time"

	"gorm.io/datatypes"
)

// ProfileRecord 画像持久化记录。候选人画像和岗位画像同表存储，
// 以Kind区分。同一文档重复处理时以最后写入者为准。
type ProfileRecord struct {
	DocumentID         string         `gorm:"type:varchar(128);primaryKey"`
	Kind               string         `gorm:"type:varchar(20);not null;index:idx_profiles_kind"` // candidate | job
	ContentHash        string         `gorm:"type:char(64);not null;index:idx_profiles_content_hash"`
	VocabularyVersion  string         `gorm:"type:varchar(50);not null"`
	ModelVersion       string         `gorm:"type:varchar(100);not null"`
	SkillsJSON         datatypes.JSON `gorm:"type:json"` // skill_id -> {confidence, section, match_type}
	SectionVectorsJSON datatypes.JSON `gorm:"type:json"` // 段落级向量, section kind -> []float64
	WholeDocVector     datatypes.JSON `gorm:"type:json"` // 整文向量
	Status             string         `gorm:"type:varchar(20);default:'COMPLETED';index:idx_profiles_status"` // COMPLETED | PARTIAL | FAILED
	ExtractedAt        time.Time      `gorm:"type:datetime(6)"`
	CreatedAt          time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt          time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (ProfileRecord) TableName() string {
	return "profiles"
}

// MatchRecord 候选人-岗位匹配评估记录
type MatchRecord struct {
	MatchID             uint64         `gorm:"primaryKey;autoIncrement"`
	CandidateID         string         `gorm:"type:varchar(128);not null;index:idx_matches_candidate;uniqueIndex:idx_matches_candidate_job,priority:1"`
	JobID               string         `gorm:"type:varchar(128);not null;index:idx_matches_job_score,priority:1;uniqueIndex:idx_matches_candidate_job,priority:2"`
	OverallScore        float64        `gorm:"type:double;index:idx_matches_job_score,priority:2"`
	SkillOverlapScore   float64        `gorm:"type:double"`
	SemanticScore       float64        `gorm:"type:double"`
	MatchedSkillsJSON   datatypes.JSON `gorm:"type:json"`
	MissingRequiredJSON datatypes.JSON `gorm:"type:json"`
	Partial             bool           `gorm:"type:tinyint(1);default:0"`
	PolicyVersion       string         `gorm:"type:varchar(20);not null"`
	ComputedAt          time.Time      `gorm:"type:datetime(6)"`
	CreatedAt           time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6)"`
	UpdatedAt           time.Time      `gorm:"type:datetime(6);default:CURRENT_TIMESTAMP(6);autoUpdateTime"`
}

func (MatchRecord) TableName() string {
	return "job_candidate_matches"
}
