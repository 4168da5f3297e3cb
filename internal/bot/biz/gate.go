package biz

import (
	"fmt"
	"regexp"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/fsnotify/fsnotify"
	"github.com/kart-io/logger"
	"github.com/spf13/viper"
	utilerrors "k8s.io/apimachinery/pkg/util/errors"

	"github.com/kart-io/camaral-bot/internal/bot/store"
	"github.com/kart-io/camaral-bot/pkg/errors"
	"github.com/kart-io/camaral-bot/pkg/validator"
)

// DefaultRelevanceThreshold 平均相似度阈值。
const DefaultRelevanceThreshold = 0.3

// Policy 主题拦截策略。
type Policy struct {
	// Patterns 命中任意一条即视为离题，匹配时忽略大小写。
	Patterns []string `json:"patterns" mapstructure:"patterns" validate:"dive,required,regexp"`
	// Keywords 包含任意关键词的消息不会因低分被拦截。
	Keywords []string `json:"keywords" mapstructure:"keywords" validate:"dive,required"`
	// Threshold 平均相似度低于该值且无关键词时视为离题。
	Threshold float64 `json:"threshold" mapstructure:"threshold" validate:"gte=0,lte=1"`
}

// DefaultPolicy 返回内置策略。
func DefaultPolicy() *Policy {
	return &Policy{
		Patterns: []string{
			`^(hola|hey|hi|hello|buenos días|buenas tardes|buenas noches)$`,
			`cuéntame (un chiste|algo gracioso|una historia)`,
			`quién (eres|te creó|te hizo)`,
			`(escribe|genera|crea).*(código|programa|script)`,
			`(resuelve|calcula|ayuda con).*(matemáticas|ecuación|problema)`,
			`(qué opinas|qué piensas).*(política|religión|gobierno)`,
			`(recomienda|sugiere).*(película|libro|música|restaurante)`,
			`^(gracias|ok|vale|entendido|perfecto)$`,
		},
		Keywords: []string{
			"camaral", "avatar", "reunión", "reuniones", "ventas", "soporte",
			"precio", "plan", "demo", "bot", "ia", "inteligencia artificial",
			"zoom", "teams", "meet", "videollamada", "automatizar",
		},
		Threshold: DefaultRelevanceThreshold,
	}
}

// Validate 校验策略。
func (p *Policy) Validate() error {
	return utilerrors.NewAggregate(validator.Struct(p))
}

// clone 深拷贝策略。
func (p *Policy) clone() *Policy {
	return &Policy{
		Patterns:  append([]string(nil), p.Patterns...),
		Keywords:  append([]string(nil), p.Keywords...),
		Threshold: p.Threshold,
	}
}

type compiledPolicy struct {
	patterns []*regexp.Regexp
	// words 单词关键词，按词首匹配。
	words []string
	// phrases 含空格的关键词，按子串匹配。
	phrases   []string
	threshold float64
}

func compilePolicy(p *Policy) (*compiledPolicy, error) {
	if p == nil {
		return nil, errors.ErrInvalidArgument.WithMessage("policy is nil")
	}
	if err := p.Validate(); err != nil {
		return nil, errors.ErrInvalidArgument.WithCause(err)
	}

	cp := &compiledPolicy{threshold: p.Threshold}
	for _, expr := range p.Patterns {
		re, err := regexp.Compile("(?i)" + expr)
		if err != nil {
			return nil, errors.ErrInvalidArgument.WithCause(fmt.Errorf("pattern %q: %w", expr, err))
		}
		cp.patterns = append(cp.patterns, re)
	}
	for _, kw := range p.Keywords {
		kw = strings.ToLower(strings.TrimSpace(kw))
		if strings.ContainsFunc(kw, unicode.IsSpace) {
			cp.phrases = append(cp.phrases, strings.Join(strings.Fields(kw), " "))
			continue
		}
		cp.words = append(cp.words, kw)
	}
	return cp, nil
}

// Gate 相关性闸门，策略可并发热更新。
type Gate struct {
	policy atomic.Pointer[compiledPolicy]
	// base 策略文件缺省字段的取值来源。
	base *Policy
}

// NewGate 创建闸门，policy 为 nil 时使用内置策略。
// 策略文件未设置的字段沿用 policy 中的值。
func NewGate(policy *Policy) (*Gate, error) {
	if policy == nil {
		policy = DefaultPolicy()
	}
	g := &Gate{base: policy.clone()}
	if err := g.Update(policy); err != nil {
		return nil, err
	}
	return g, nil
}

// Update 替换当前策略，非法策略被拒绝且保留原策略。
func (g *Gate) Update(policy *Policy) error {
	cp, err := compilePolicy(policy)
	if err != nil {
		return err
	}
	g.policy.Store(cp)
	return nil
}

// IsOffTopic 判断消息是否偏离主题。
func (g *Gate) IsOffTopic(message string, results []store.SearchResult) bool {
	p := g.policy.Load()
	lower := strings.ToLower(message)

	for _, re := range p.patterns {
		if re.MatchString(lower) {
			return true
		}
	}

	if meanScore(results) < p.threshold && !p.hasKeyword(lower) {
		return true
	}
	return false
}

// meanScore 空列表返回 0。
func meanScore(results []store.SearchResult) float64 {
	if len(results) == 0 {
		return 0
	}
	var sum float64
	for _, r := range results {
		sum += float64(r.Score)
	}
	return sum / float64(len(results))
}

// hasKeyword 单词关键词需出现在某个词的开头，"precio" 命中 "precios"，
// "ia" 不命中 "francia"。
func (p *compiledPolicy) hasKeyword(lower string) bool {
	if len(p.phrases) > 0 {
		normalized := strings.Join(strings.Fields(lower), " ")
		for _, phrase := range p.phrases {
			if strings.Contains(normalized, phrase) {
				return true
			}
		}
	}
	if len(p.words) == 0 {
		return false
	}
	tokens := strings.FieldsFunc(lower, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})
	for _, token := range tokens {
		for _, kw := range p.words {
			if strings.HasPrefix(token, kw) {
				return true
			}
		}
	}
	return false
}

// LoadPolicy 从 YAML 文件加载策略，未设置的字段使用内置默认值。
func LoadPolicy(path string) (*Policy, error) {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return nil, errors.ErrConfiguration.WithCause(err)
	}
	return policyFrom(v, DefaultPolicy())
}

// policyFrom 以 base 的副本为底解析策略。
func policyFrom(v *viper.Viper, base *Policy) (*Policy, error) {
	p := base.clone()
	if err := v.Unmarshal(p); err != nil {
		return nil, errors.ErrConfiguration.WithCause(err)
	}
	return p, nil
}

// WatchPolicyFile 加载策略文件并在文件变化时热更新。
func (g *Gate) WatchPolicyFile(path string) error {
	v := viper.New()
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		return errors.ErrConfiguration.WithCause(err)
	}

	p, err := policyFrom(v, g.base)
	if err != nil {
		return err
	}
	if err := g.Update(p); err != nil {
		return err
	}

	v.OnConfigChange(func(e fsnotify.Event) {
		p, err := policyFrom(v, g.base)
		if err == nil {
			err = g.Update(p)
		}
		if err != nil {
			logger.Warnw("Rejected relevance policy reload, keeping previous policy",
				"file", e.Name,
				"error", err.Error(),
			)
			return
		}
		logger.Infow("Relevance policy reloaded",
			"file", e.Name,
			"patterns", len(p.Patterns),
			"keywords", len(p.Keywords),
			"threshold", p.Threshold,
		)
	})
	v.WatchConfig()

	logger.Infow("Watching relevance policy", "file", path)
	return nil
}
