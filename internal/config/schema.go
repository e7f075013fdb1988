package config

// RuleConfig is the top-level YAML structure.
type RuleConfig struct {
	Version   string     `yaml:"version" json:"version"`
	Engine    EngineConf `yaml:"engine" json:"engine"`
	Codebook  string     `yaml:"codebook" json:"codebook,omitempty"` // path, relative to the config file
	Questions []Question `yaml:"questions" json:"questions"`
}

// EngineConf holds tunable pipeline settings.
type EngineConf struct {
	DocumentWorkers        int     `yaml:"document_workers" json:"documentWorkers"`
	QueueDepth             int     `yaml:"queue_depth" json:"queueDepth"`
	DocumentTimeoutMs      int     `yaml:"document_timeout_ms" json:"documentTimeoutMs"`
	AnchorQualityThreshold float64 `yaml:"anchor_quality_threshold" json:"anchorQualityThreshold"`
	RateLimitRPS           float64 `yaml:"rate_limit_rps" json:"rateLimitRps"`
	RateLimitBurst         int     `yaml:"rate_limit_burst" json:"rateLimitBurst"`
	MaxBatchSize           int     `yaml:"max_batch_size" json:"maxBatchSize"`
}

// Period is the look-back window a question asks about.
type Period string

const (
	Period3M  Period = "3M"
	Period5Y  Period = "5Y"
	PeriodAll Period = "ALL"
)

// Question is one underwriting disclosure question.
type Question struct {
	ID          string          `yaml:"id" json:"id"`
	Title       string          `yaml:"title" json:"title"`
	Description string          `yaml:"description" json:"description"`
	Priority    int             `yaml:"priority" json:"priority"` // 1 = highest
	Period      Period          `yaml:"period" json:"period"`
	Triggers    Triggers        `yaml:"triggers" json:"triggers"`
	Scoring     QuestionScoring `yaml:"scoring" json:"scoring"`
}

// Triggers are the rules an event must satisfy to support a question.
type Triggers struct {
	EventTypes           []string `yaml:"event_types" json:"eventTypes"`
	Keywords             []string `yaml:"keywords" json:"keywords"`
	ExcludeKeywords      []string `yaml:"exclude_keywords" json:"excludeKeywords"`
	DiagnosisCodesPrefix []string `yaml:"diagnosis_codes_prefix" json:"diagnosisCodesPrefix"`
	ProcedureKeywords    []string `yaml:"procedure_keywords" json:"procedureKeywords"`
}

// Empty reports whether no positive trigger is configured.
func (t Triggers) Empty() bool {
	return len(t.EventTypes) == 0 && len(t.Keywords) == 0 &&
		len(t.DiagnosisCodesPrefix) == 0 && len(t.ProcedureKeywords) == 0
}

// QuestionScoring weights a matched event for this question.
type QuestionScoring struct {
	BaseWeight     float64            `yaml:"base_weight" json:"baseWeight"`
	PeriodBoost    float64            `yaml:"period_boost" json:"periodBoost"`
	EventTypeBoost map[string]float64 `yaml:"event_type_boost" json:"eventTypeBoost"`
	CodeBoost      float64            `yaml:"code_boost" json:"codeBoost"`
}
