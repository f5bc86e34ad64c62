package vocab

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"unicode"

	"gopkg.in/yaml.v3"
)

// ErrVocabularyLoad 词表加载失败。启动期致命错误。
var ErrVocabularyLoad = errors.New("技能词表加载失败")

// CanonicalSkill 规范技能条目
type CanonicalSkill struct {
	ID          string   `yaml:"id"`
	DisplayName string   `yaml:"display_name"`
	Aliases     []string `yaml:"aliases"`
}

// vocabularyFile 词表文件的磁盘格式
type vocabularyFile struct {
	Version string           `yaml:"version"`
	Skills  []CanonicalSkill `yaml:"skills"`
}

// Vocabulary 运行期不可变的技能词表。加载一次，之后只读，可安全并发访问。
// 不变量：归一化后的任一术语（规范名或别名）只映射到一个规范技能。
type Vocabulary struct {
	version string
	skills  []CanonicalSkill  // 声明顺序
	byID    map[string]int    // 技能ID -> skills下标
	byTerm  map[string]string // 归一化术语 -> 技能ID
}

// Load 从YAML文件加载词表
func Load(path string) (*Vocabulary, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: 读取 %s: %v", ErrVocabularyLoad, path, err)
	}
	return Parse(data)
}

// Parse 从YAML字节解析词表，并校验别名唯一性
func Parse(data []byte) (*Vocabulary, error) {
	var file vocabularyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("%w: 解析YAML: %v", ErrVocabularyLoad, err)
	}
	if file.Version == "" {
		return nil, fmt.Errorf("%w: 缺少version字段", ErrVocabularyLoad)
	}
	if len(file.Skills) == 0 {
		return nil, fmt.Errorf("%w: 词表为空", ErrVocabularyLoad)
	}

	v := &Vocabulary{
		version: file.Version,
		skills:  file.Skills,
		byID:    make(map[string]int, len(file.Skills)),
		byTerm:  make(map[string]string),
	}

	for i, s := range file.Skills {
		if s.ID == "" {
			return nil, fmt.Errorf("%w: 第%d个技能缺少id", ErrVocabularyLoad, i)
		}
		if _, dup := v.byID[s.ID]; dup {
			return nil, fmt.Errorf("%w: 技能ID重复 %q", ErrVocabularyLoad, s.ID)
		}
		v.byID[s.ID] = i

		terms := append([]string{s.DisplayName}, s.Aliases...)
		for _, term := range terms {
			norm := NormalizeTerm(term)
			if norm == "" {
				continue
			}
			if owner, exists := v.byTerm[norm]; exists && owner != s.ID {
				// 一个别名指向两个规范技能会让抽取结果不确定，直接拒绝加载
				return nil, fmt.Errorf("%w: 术语 %q 同时映射到 %q 和 %q", ErrVocabularyLoad, term, owner, s.ID)
			}
			v.byTerm[norm] = s.ID
		}
	}

	return v, nil
}

// Version 返回词表版本标签，所有派生画像都必须携带它
func (v *Vocabulary) Version() string {
	return v.version
}

// Len 返回规范技能数量
func (v *Vocabulary) Len() int {
	return len(v.skills)
}

// Skills 按声明顺序返回全部规范技能
func (v *Vocabulary) Skills() []CanonicalSkill {
	return v.skills
}

// LookupTerm 按归一化术语查找规范技能ID
func (v *Vocabulary) LookupTerm(term string) (string, bool) {
	id, ok := v.byTerm[NormalizeTerm(term)]
	return id, ok
}

// Get 按ID查找规范技能
func (v *Vocabulary) Get(id string) (CanonicalSkill, bool) {
	idx, ok := v.byID[id]
	if !ok {
		return CanonicalSkill{}, false
	}
	return v.skills[idx], true
}

// DisplayName 按ID返回展示名；未知ID返回ID本身
func (v *Vocabulary) DisplayName(id string) string {
	if s, ok := v.Get(id); ok {
		return s.DisplayName
	}
	return id
}

// Terms 返回全部归一化术语到技能ID的映射副本，供抽取器批量匹配
func (v *Vocabulary) Terms() map[string]string {
	out := make(map[string]string, len(v.byTerm))
	for term, id := range v.byTerm {
		out[term] = id
	}
	return out
}

// NormalizeTerm 统一的术语归一化：小写、去首尾空白、折叠内部空白、
// 剥除大部分标点。保留 + # . 以免破坏 c++ / c# / .net 这类技能名。
func NormalizeTerm(term string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range strings.ToLower(strings.TrimSpace(term)) {
		switch {
		case unicode.IsSpace(r):
			if !lastSpace && b.Len() > 0 {
				b.WriteRune(' ')
				lastSpace = true
			}
		case unicode.IsLetter(r) || unicode.IsDigit(r) || r == '+' || r == '#' || r == '.' || r == '-':
			b.WriteRune(r)
			lastSpace = false
		default:
			// 其余标点直接丢弃
		}
	}
	return strings.TrimRight(b.String(), " ")
}
