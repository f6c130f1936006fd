package service

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
)

// ==================== 文档分析服务 ====================

const (
	// 正文超长时截断，给提示词留出 token 空间
	analyzeMaxChars = 30000
	// 少于此长度的文本没有分析价值
	analyzeMinChars = 50
)

// AnalysisResult 文档分析结果
type AnalysisResult struct {
	Summary    string                 `json:"summary"`
	Keywords   []string               `json:"keywords"`
	Sentiment  string                 `json:"sentiment"`
	Confidence float64                `json:"confidence"`
	Data       map[string]interface{} `json:"analysis_data"`
}

// AnalyzeService 基于模型的文档文本分析
// 分析属于尽力而为: 模型不可用或响应不可解析时逐级降级，不向上抛错
type AnalyzeService struct {
	provider TextProvider
}

// NewAnalyzeService 创建分析服务
func NewAnalyzeService(provider TextProvider) *AnalyzeService {
	return &AnalyzeService{provider: provider}
}

// AnalyzeDocument 分析文档文本，返回摘要、关键词与情感
func (s *AnalyzeService) AnalyzeDocument(ctx context.Context, text string) *AnalysisResult {
	if len(strings.TrimSpace(text)) < analyzeMinChars {
		return &AnalysisResult{
			Summary:    "Document is too short for meaningful analysis.",
			Keywords:   []string{},
			Sentiment:  "neutral",
			Confidence: 0.0,
			Data:       map[string]interface{}{},
		}
	}

	if len(text) > analyzeMaxChars {
		text = text[:analyzeMaxChars] + "..."
	}

	raw, err := s.provider.GenerateOnce(ctx, buildAnalyzePrompt(text), GenerateOptions{
		Temperature:     0.3,
		MaxOutputTokens: 500,
	})
	if err != nil {
		// 模型不可用时退回词频关键词，让上传流程照常走完
		return &AnalysisResult{
			Summary:    fmt.Sprintf("Error during AI analysis: %v", err),
			Keywords:   extractSimpleKeywords(text),
			Sentiment:  "neutral",
			Confidence: 0.0,
			Data:       map[string]interface{}{"error": err.Error()},
		}
	}

	return parseAnalysis(raw)
}

func buildAnalyzePrompt(text string) string {
	return fmt.Sprintf(`Analyze the following document and provide:
1. A concise summary (2-3 sentences)
2. Top 5-10 key keywords or topics
3. Overall sentiment (positive, negative, or neutral)
4. Confidence score (0.0 to 1.0)

Document text:
%s

Respond in JSON format with the following structure:
{
    "summary": "brief summary here",
    "keywords": ["keyword1", "keyword2", ...],
    "sentiment": "positive/negative/neutral",
    "confidence": 0.85,
    "insights": {
        "main_topics": ["topic1", "topic2"],
        "key_points": ["point1", "point2"],
        "document_type": "type of document"
    }
}

Important: Respond ONLY with valid JSON, no additional text or markdown formatting.`, text)
}

// parseAnalysis 解析模型返回的分析 JSON，失败时降级为原文摘要
func parseAnalysis(raw string) *AnalysisResult {
	cleaned := CleanJSONResponse(raw)

	var payload struct {
		Summary    string                 `json:"summary"`
		Keywords   []string               `json:"keywords"`
		Sentiment  string                 `json:"sentiment"`
		Confidence float64                `json:"confidence"`
		Insights   map[string]interface{} `json:"insights"`
	}
	if err := json.Unmarshal([]byte(cleaned), &payload); err != nil {
		summary := cleaned
		if summary == "" {
			summary = "Analysis completed"
		} else if len(summary) > 200 {
			summary = summary[:200]
		}
		return &AnalysisResult{
			Summary:    summary,
			Keywords:   []string{},
			Sentiment:  "neutral",
			Confidence: 0.5,
			Data:       map[string]interface{}{"raw_response": cleaned},
		}
	}

	if payload.Sentiment == "" {
		payload.Sentiment = "neutral"
	}
	if payload.Keywords == nil {
		payload.Keywords = []string{}
	}
	if payload.Insights == nil {
		payload.Insights = map[string]interface{}{}
	}
	return &AnalysisResult{
		Summary:    payload.Summary,
		Keywords:   payload.Keywords,
		Sentiment:  payload.Sentiment,
		Confidence: payload.Confidence,
		Data:       payload.Insights,
	}
}

// 词频兜底会过滤掉的常见虚词
var stopWords = map[string]struct{}{
	"the": {}, "a": {}, "an": {}, "and": {}, "or": {}, "but": {}, "in": {}, "on": {},
	"at": {}, "to": {}, "for": {}, "of": {}, "with": {}, "by": {}, "is": {}, "are": {},
	"was": {}, "were": {}, "be": {}, "been": {}, "have": {}, "has": {}, "had": {},
	"do": {}, "does": {}, "did": {}, "will": {}, "would": {}, "could": {}, "should": {},
	"may": {}, "might": {}, "must": {}, "can": {},
}

// extractSimpleKeywords 词频统计兜底: 取出现最多的 10 个长词
func extractSimpleKeywords(text string) []string {
	counts := make(map[string]int)
	for _, word := range strings.Fields(strings.ToLower(text)) {
		if len(word) <= 4 {
			continue
		}
		if _, ok := stopWords[word]; ok {
			continue
		}
		counts[word]++
	}

	words := make([]string, 0, len(counts))
	for word := range counts {
		words = append(words, word)
	}
	// 同频按字典序，保证结果稳定
	sort.Slice(words, func(i, j int) bool {
		if counts[words[i]] != counts[words[j]] {
			return counts[words[i]] > counts[words[j]]
		}
		return words[i] < words[j]
	})

	if len(words) > 10 {
		words = words[:10]
	}
	return words
}
