package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/custodia-labs/spo/internal/core/domain"
	"github.com/custodia-labs/spo/internal/core/ports/driving"
	"github.com/custodia-labs/spo/internal/logger"
)

// Return codes of the /optimize contract.
const (
	retCodeOK    = 0
	retCodeError = 1
)

// articleRequirement is what every /optimize session optimises for. The
// question prefixes below and this text are sent to the models verbatim and
// stay in the language existing clients write their articles in.
const articleRequirement = "1. 结合事实：100%覆盖输入的事实信息的核心实体、事件、数据，无遗漏或错误；" +
	"2.文风匹配：生成内容的语气、句式、叙述逻辑与文风模版一致，无违和感；" +
	"3、只能使用图片库中有的图片信息; " +
	"4. 输出约束：仅输出结果，不添加额外分析或解释。"

// Question parts of the single article exemplar.
const (
	articleQuestionPrefix = "请根据以下要求撰写文章："
	articleStyleLabel     = "风格要求: "
	articleFactsLabel     = "必须包含的事实: "
	articleImageLabel     = "图片库信息: "
)

// articleSessionName labels sessions started through /optimize.
const articleSessionName = "api_request"

type articleRequest struct {
	Prompt      string `json:"prompt"`
	ArticleText string `json:"article_text"`
	Style       string `json:"style"`
	FactInfo    string `json:"fact_info"`
	Image       string `json:"image"`
}

type articleResponse struct {
	RetCode    int    `json:"ret_code"`
	BestPrompt string `json:"best_prompt"`
	Msg        string `json:"msg"`
	SessionID  string `json:"session_id,omitempty"`
}

// validate returns a message naming the first blank required field.
func (r articleRequest) validate() string {
	required := []struct {
		field, label, value string
	}{
		{"prompt", "initial prompt", r.Prompt},
		{"article_text", "reference article", r.ArticleText},
		{"fact_info", "facts to include", r.FactInfo},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return fmt.Sprintf("required field missing or invalid: %s (%s) must not be empty", f.label, f.field)
		}
	}
	return ""
}

// exemplar builds the single question/answer pair of an article request.
// Style is included whenever it is non-empty; the image library only when
// it has non-blank content.
func (r articleRequest) exemplar() domain.Exemplar {
	var parts []string
	if len(r.Style) > 0 {
		parts = append(parts, articleStyleLabel+r.Style)
	}
	parts = append(parts, articleFactsLabel+strings.TrimSpace(r.FactInfo))
	if image := strings.TrimSpace(r.Image); image != "" {
		parts = append(parts, articleImageLabel+image)
	}
	return domain.Exemplar{
		Question: articleQuestionPrefix + strings.Join(parts, "; "),
		Answer:   strings.TrimSpace(r.ArticleText),
	}
}

func (r articleRequest) task(maxRounds int) domain.TaskContext {
	return domain.TaskContext{
		SeedInstruction: strings.TrimSpace(r.Prompt),
		Requirement:     articleRequirement,
		Exemplars:       []domain.Exemplar{r.exemplar()},
		MaxRounds:       maxRounds,
	}
}

// handleOptimizeArticle always answers 200; failures are reported through
// ret_code so existing clients keep working.
func (h *handlers) handleOptimizeArticle(w http.ResponseWriter, r *http.Request) {
	var req articleRequest
	if err := decodeJSONBody(r, &req, false); err != nil {
		writeJSON(w, http.StatusOK, articleResponse{
			RetCode: retCodeError,
			Msg:     "optimization failed: " + err.Error(),
		})
		return
	}

	if msg := req.validate(); msg != "" {
		logger.Warn("optimize request rejected: %s", msg)
		writeJSON(w, http.StatusOK, articleResponse{
			RetCode: retCodeError,
			Msg:     "optimization failed: " + msg,
		})
		return
	}

	result, err := h.optimizer.Optimize(r.Context(), req.task(h.cfg.MaxRounds), driving.OptimizeOptions{
		Name: articleSessionName,
	})
	if err != nil {
		logger.Error("optimize request failed: %v", err)
		resp := articleResponse{
			RetCode: retCodeError,
			Msg:     "optimization failed: internal error - " + err.Error(),
		}
		if result != nil {
			resp.SessionID = result.SessionID
		}
		writeJSON(w, http.StatusOK, resp)
		return
	}

	writeJSON(w, http.StatusOK, articleResponse{
		RetCode:    retCodeOK,
		BestPrompt: strings.TrimSpace(result.BestInstruction()),
		Msg:        "prompt optimized successfully",
		SessionID:  result.SessionID,
	})
}
