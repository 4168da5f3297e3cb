package biz

import (
	"fmt"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/kart-io/camaral-bot/internal/bot/store"
)

const (
	// DefaultChunkSize 默认分块大小（字符数）。
	DefaultChunkSize = 1500
	// DefaultChunkOverlap 默认分块重叠（字符数）。
	DefaultChunkOverlap = 200

	defaultSection     = "Introducción"
	generalSection     = "General"
	headingMaxLen      = 80
	sectionLabelMaxLen = 60
	sectionTitleMaxLen = 100
)

var (
	paragraphSep = regexp.MustCompile(`\n\n+`)
	sectionStart = regexp.MustCompile(`^\n(?:¿|[A-Z][a-záéíóú]+\s)`)
	headingMark  = regexp.MustCompile(`^#+\s*`)
)

// ChunkerConfig 分块器配置。
type ChunkerConfig struct {
	// ChunkSize 分块大小的软上限。
	ChunkSize int
	// ChunkOverlap 相邻分块的重叠字符数。
	ChunkOverlap int
}

// Chunker 将文档切分为分块，长度均按字符（rune）计算。
type Chunker struct {
	size    int
	overlap int
}

// NewChunker 创建分块器，非法配置回退为默认值。
func NewChunker(config *ChunkerConfig) *Chunker {
	c := &Chunker{size: DefaultChunkSize, overlap: DefaultChunkOverlap}
	if config != nil {
		if config.ChunkSize > 0 {
			c.size = config.ChunkSize
		}
		if config.ChunkOverlap >= 0 && config.ChunkOverlap < c.size {
			c.overlap = config.ChunkOverlap
		}
	}
	return c
}

// ChunkDocument 按段落切分文档，并在相邻分块之间保留重叠。
// 单个超长段落不会被拆分；字符偏移为近似值。
func (c *Chunker) ChunkDocument(text, docID string) []store.Chunk {
	var chunks []store.Chunk
	section := defaultSection
	acc := ""
	index := 0
	pos := 0

	for _, paragraph := range paragraphSep.Split(text, -1) {
		p := strings.TrimSpace(paragraph)
		if p == "" {
			continue
		}
		pLen := utf8.RuneCountInString(p)

		if isHeading(p, pLen) {
			section = headRunes(p, sectionLabelMaxLen)
		}

		accLen := utf8.RuneCountInString(acc)
		if accLen+pLen > c.size && accLen > 0 {
			chunks = append(chunks, newChunk(docID, index, strings.TrimSpace(acc), section, pos-accLen, pos))
			index++
			acc = tailRunes(acc, c.overlap) + "\n\n" + p
		} else {
			if acc != "" {
				acc += "\n\n"
			}
			acc += p
		}

		pos += pLen + 2
	}

	if strings.TrimSpace(acc) != "" {
		accLen := utf8.RuneCountInString(acc)
		chunks = append(chunks, newChunk(docID, index, strings.TrimSpace(acc), section, pos-accLen, pos))
	}

	return chunks
}

// ChunkDocumentBySections 在每个以 "¿" 或首字母大写单词开头的行前切分。
// 超过分块大小的章节会再按段落切分，并统一标记为章节标题。
func (c *Chunker) ChunkDocumentBySections(text, docID string) []store.Chunk {
	var chunks []store.Chunk
	pos := 0

	for i, raw := range splitSections(text) {
		section := strings.TrimSpace(raw)
		if section == "" {
			continue
		}

		title := sectionTitle(section)
		sLen := utf8.RuneCountInString(section)

		if sLen > c.size {
			for _, sub := range c.ChunkDocument(section, fmt.Sprintf("%s-s%d", docID, i)) {
				sub.Metadata.Section = title
				chunks = append(chunks, sub)
			}
		} else {
			chunks = append(chunks, newChunk(docID, i, section, title, pos, pos+sLen))
		}

		pos += sLen
	}

	return chunks
}

// splitSections 在匹配 sectionStart 的换行符之前切分，换行符归入后一段。
func splitSections(text string) []string {
	var parts []string
	prev := 0
	for i := 1; i < len(text); i++ {
		if text[i] == '\n' && sectionStart.MatchString(text[i:]) {
			parts = append(parts, text[prev:i])
			prev = i
		}
	}
	return append(parts, text[prev:])
}

func isHeading(p string, runeLen int) bool {
	return strings.HasPrefix(p, "¿") ||
		strings.HasSuffix(p, "?") ||
		(runeLen < headingMaxLen && !strings.Contains(p, "."))
}

func sectionTitle(section string) string {
	for _, line := range strings.Split(section, "\n") {
		t := strings.TrimSpace(line)
		if t != "" && utf8.RuneCountInString(t) < sectionTitleMaxLen {
			return headingMark.ReplaceAllString(t, "")
		}
	}
	return generalSection
}

func newChunk(docID string, index int, text, section string, start, end int) store.Chunk {
	return store.Chunk{
		ID:   fmt.Sprintf("%s-%d", docID, index),
		Text: text,
		Metadata: store.ChunkMetadata{
			Section:   section,
			Index:     index,
			CharStart: start,
			CharEnd:   end,
		},
	}
}

func headRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func tailRunes(s string, n int) string {
	if n <= 0 {
		return ""
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[len(r)-n:])
}
