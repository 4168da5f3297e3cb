// Package metrics 提供机器人服务的业务指标收集。
package metrics

import (
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"time"
)

// BotMetrics 机器人业务指标。
type BotMetrics struct {
	// 问答指标
	queriesTotal    uint64 // 总问答次数
	queriesOffTopic uint64 // 离题拦截次数
	queriesErrors   uint64 // 问答错误次数

	// 检索指标
	retrievalTotal    uint64  // 总检索次数
	retrievalDuration float64 // 检索总耗时（秒）
	retrievalErrors   uint64  // 检索错误次数

	// LLM 调用指标
	llmCallsTotal    uint64  // LLM 总调用次数
	llmCallsDuration float64 // LLM 调用总耗时（秒）
	llmCallsErrors   uint64  // LLM 调用错误次数

	// 语音转写指标
	transcriptionsTotal  uint64
	transcriptionsErrors uint64

	// Webhook 指标
	updatesReceived   uint64 // 收到的更新数
	updatesDuplicates uint64 // 重复投递被丢弃的更新数
	updatesRejected   uint64 // 工作池满被拒绝的更新数

	// 索引指标
	indexRuns     uint64 // 索引次数
	chunksIndexed uint64 // 最近一次索引的分块数
	indexErrors   uint64 // 索引错误次数

	startTime  time.Time
	durationMu sync.Mutex
}

var (
	globalMetrics *BotMetrics
	metricsOnce   sync.Once
)

// Get 获取全局指标实例。
func Get() *BotMetrics {
	metricsOnce.Do(func() {
		globalMetrics = New()
	})
	return globalMetrics
}

// New 创建独立的指标实例。
func New() *BotMetrics {
	return &BotMetrics{startTime: time.Now()}
}

// RecordQuery 记录一次问答。
func (m *BotMetrics) RecordQuery(offTopic bool, err error) {
	atomic.AddUint64(&m.queriesTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.queriesErrors, 1)
		return
	}
	if offTopic {
		atomic.AddUint64(&m.queriesOffTopic, 1)
	}
}

// RecordRetrieval 记录检索操作。
func (m *BotMetrics) RecordRetrieval(duration time.Duration, err error) {
	atomic.AddUint64(&m.retrievalTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.retrievalErrors, 1)
		return
	}

	m.durationMu.Lock()
	m.retrievalDuration += duration.Seconds()
	m.durationMu.Unlock()
}

// RecordLLMCall 记录 LLM 调用。
func (m *BotMetrics) RecordLLMCall(duration time.Duration, err error) {
	atomic.AddUint64(&m.llmCallsTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.llmCallsErrors, 1)
		return
	}

	m.durationMu.Lock()
	m.llmCallsDuration += duration.Seconds()
	m.durationMu.Unlock()
}

// RecordTranscription 记录语音转写。
func (m *BotMetrics) RecordTranscription(err error) {
	atomic.AddUint64(&m.transcriptionsTotal, 1)
	if err != nil {
		atomic.AddUint64(&m.transcriptionsErrors, 1)
	}
}

// RecordUpdate 记录收到的 webhook 更新。
func (m *BotMetrics) RecordUpdate(duplicate, rejected bool) {
	atomic.AddUint64(&m.updatesReceived, 1)
	if duplicate {
		atomic.AddUint64(&m.updatesDuplicates, 1)
	}
	if rejected {
		atomic.AddUint64(&m.updatesRejected, 1)
	}
}

// RecordIndexing 记录索引操作。
func (m *BotMetrics) RecordIndexing(chunks int, err error) {
	if err != nil {
		atomic.AddUint64(&m.indexErrors, 1)
		return
	}
	atomic.AddUint64(&m.indexRuns, 1)
	atomic.StoreUint64(&m.chunksIndexed, uint64(chunks))
}

// Snapshot 指标快照。
type Snapshot struct {
	UptimeSeconds        float64 `json:"uptime_seconds"`
	QueriesTotal         uint64  `json:"queries_total"`
	QueriesOffTopic      uint64  `json:"queries_off_topic"`
	QueriesErrors        uint64  `json:"queries_errors"`
	RetrievalTotal       uint64  `json:"retrieval_total"`
	RetrievalErrors      uint64  `json:"retrieval_errors"`
	RetrievalAvgSeconds  float64 `json:"retrieval_avg_seconds"`
	LLMCallsTotal        uint64  `json:"llm_calls_total"`
	LLMCallsErrors       uint64  `json:"llm_calls_errors"`
	LLMCallsAvgSeconds   float64 `json:"llm_calls_avg_seconds"`
	TranscriptionsTotal  uint64  `json:"transcriptions_total"`
	TranscriptionsErrors uint64  `json:"transcriptions_errors"`
	UpdatesReceived      uint64  `json:"updates_received"`
	UpdatesDuplicates    uint64  `json:"updates_duplicates"`
	UpdatesRejected      uint64  `json:"updates_rejected"`
	IndexRuns            uint64  `json:"index_runs"`
	ChunksIndexed        uint64  `json:"chunks_indexed"`
	IndexErrors          uint64  `json:"index_errors"`
}

// Snapshot 返回当前指标快照。
func (m *BotMetrics) Snapshot() Snapshot {
	s := Snapshot{
		UptimeSeconds:        time.Since(m.startTime).Seconds(),
		QueriesTotal:         atomic.LoadUint64(&m.queriesTotal),
		QueriesOffTopic:      atomic.LoadUint64(&m.queriesOffTopic),
		QueriesErrors:        atomic.LoadUint64(&m.queriesErrors),
		RetrievalTotal:       atomic.LoadUint64(&m.retrievalTotal),
		RetrievalErrors:      atomic.LoadUint64(&m.retrievalErrors),
		LLMCallsTotal:        atomic.LoadUint64(&m.llmCallsTotal),
		LLMCallsErrors:       atomic.LoadUint64(&m.llmCallsErrors),
		TranscriptionsTotal:  atomic.LoadUint64(&m.transcriptionsTotal),
		TranscriptionsErrors: atomic.LoadUint64(&m.transcriptionsErrors),
		UpdatesReceived:      atomic.LoadUint64(&m.updatesReceived),
		UpdatesDuplicates:    atomic.LoadUint64(&m.updatesDuplicates),
		UpdatesRejected:      atomic.LoadUint64(&m.updatesRejected),
		IndexRuns:            atomic.LoadUint64(&m.indexRuns),
		ChunksIndexed:        atomic.LoadUint64(&m.chunksIndexed),
		IndexErrors:          atomic.LoadUint64(&m.indexErrors),
	}

	m.durationMu.Lock()
	retrievalDuration, llmDuration := m.retrievalDuration, m.llmCallsDuration
	m.durationMu.Unlock()

	if ok := s.RetrievalTotal - s.RetrievalErrors; ok > 0 {
		s.RetrievalAvgSeconds = retrievalDuration / float64(ok)
	}
	if ok := s.LLMCallsTotal - s.LLMCallsErrors; ok > 0 {
		s.LLMCallsAvgSeconds = llmDuration / float64(ok)
	}
	return s
}

// Export 导出 Prometheus 文本格式指标。
func (m *BotMetrics) Export(namespace, subsystem string) string {
	prefix := namespace
	if subsystem != "" {
		prefix = prefix + "_" + subsystem
	}
	s := m.Snapshot()

	var sb strings.Builder
	write := func(name, typ, help string, value interface{}) {
		sb.WriteString(fmt.Sprintf("# HELP %s_%s %s\n", prefix, name, help))
		sb.WriteString(fmt.Sprintf("# TYPE %s_%s %s\n", prefix, name, typ))
		sb.WriteString(fmt.Sprintf("%s_%s %v\n", prefix, name, value))
	}

	write("queries_total", "counter", "Total number of answered questions.", s.QueriesTotal)
	write("queries_off_topic_total", "counter", "Questions answered with the off-topic reply.", s.QueriesOffTopic)
	write("queries_errors_total", "counter", "Questions that failed.", s.QueriesErrors)
	write("retrieval_total", "counter", "Vector store queries.", s.RetrievalTotal)
	write("retrieval_errors_total", "counter", "Failed vector store queries.", s.RetrievalErrors)
	write("retrieval_duration_seconds_avg", "gauge", "Average retrieval latency.", s.RetrievalAvgSeconds)
	write("llm_calls_total", "counter", "Chat completion calls.", s.LLMCallsTotal)
	write("llm_calls_errors_total", "counter", "Failed chat completion calls.", s.LLMCallsErrors)
	write("llm_call_duration_seconds_avg", "gauge", "Average chat completion latency.", s.LLMCallsAvgSeconds)
	write("transcriptions_total", "counter", "Voice notes transcribed.", s.TranscriptionsTotal)
	write("transcriptions_errors_total", "counter", "Failed transcriptions.", s.TranscriptionsErrors)
	write("updates_received_total", "counter", "Webhook updates received.", s.UpdatesReceived)
	write("updates_duplicates_total", "counter", "Redelivered updates dropped.", s.UpdatesDuplicates)
	write("updates_rejected_total", "counter", "Updates rejected by the worker pool.", s.UpdatesRejected)
	write("index_runs_total", "counter", "Successful indexing runs.", s.IndexRuns)
	write("chunks_indexed", "gauge", "Chunks written by the last indexing run.", s.ChunksIndexed)
	write("index_errors_total", "counter", "Failed indexing runs.", s.IndexErrors)
	write("uptime_seconds", "gauge", "Process uptime.", fmt.Sprintf("%.0f", s.UptimeSeconds))

	return sb.String()
}
