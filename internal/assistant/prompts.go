package assistant

import (
	"fmt"
	"strings"

	"github.com/feitime/storefront/internal/models"
)

// InstructionTemplate names the user-instruction variant the orchestrator
// selected for a turn. Exposed for diagnostics and tests.
type InstructionTemplate string

const (
	TemplateInterviewIntro InstructionTemplate = "interview_intro"
	TemplateFollowUp       InstructionTemplate = "follow_up"
	TemplateRecommend      InstructionTemplate = "recommend"
	TemplateMostExpensive  InstructionTemplate = "most_expensive"
	TemplateCheapest       InstructionTemplate = "cheapest"
	TemplateMostPopular    InstructionTemplate = "most_popular"
	TemplateNoExactMatch   InstructionTemplate = "no_exact_match"
	TemplateSearchFailed   InstructionTemplate = "search_failed"
)

// SystemInstructions is the assistant persona handed to the text generation
// service on every turn.
const SystemInstructions = `你是 FeiTime Coffee 專業且友善的咖啡小助手，專門協助顧客了解咖啡知識並推薦適合的咖啡豆。

# 你的職責
1. 咖啡豆推薦：根據顧客的口味偏好推薦適合的咖啡豆
2. 沖煮建議：提供研磨度、粉水比、水溫等沖煮參數
3. 風味說明：解釋風味特性、產地特色、烘焙程度差異
4. 咖啡知識：回答處理法、品種、咖啡文化等問題

# 商品分類
我們的精品咖啡豆分為四大風味分類：
- Floral（花香明亮）：優雅茶感、花香調性
- Fruity（果香清爽）：明亮果酸、莓果調性
- Nutty（堅果巧克力）：平衡順口、可可堅果調性
- Bold（濃郁厚實）：深焙濃郁、厚重口感

# 回答原則
- 使用繁體中文，語氣親切專業
- 回答簡潔明瞭，控制在 5-8 句話內
- 推薦時必須包含名稱、價格、風味特點與推薦理由
- 如果問題超出咖啡範疇，禮貌地引導回咖啡話題`

// FallbackAnswer is returned to the shopper when text generation fails.
const FallbackAnswer = "抱歉，我現在有點忙不過來 😅 請稍後再試，或直接聯繫我們的客服！"

// followUpQuestionText maps interview topics to the question hint embedded
// in the follow-up instructions.
var followUpQuestionText = map[FollowUpTopic]string{
	TopicAcidity: "偏好的酸度（明亮、中等、低酸）",
	TopicPrice:   "預算範圍",
	TopicRoast:   "偏好的烘焙度（淺焙、中焙、深焙）",
}

// renderTranscript renders the transcript oldest-first with speaker labels,
// matching the layout the generation model was tuned against.
func renderTranscript(history []models.ConversationTurn) string {
	if len(history) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("對話歷史：\n")
	for _, turn := range history {
		label := "顧客"
		if turn.Speaker == models.SpeakerAssistant {
			label = "小助手"
		}
		fmt.Fprintf(&b, "%s: %s\n", label, turn.Text)
	}
	b.WriteString("\n")
	return b.String()
}

// renderProductContext renders the catalog results block appended to the
// user instructions when a search produced items.
func renderProductContext(items []models.CatalogItem) string {
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	fmt.Fprintf(&b, "【商品資料庫查詢結果】\n找到 %d 款符合條件的咖啡豆：\n", len(items))
	for i, item := range items {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, item.Name)
		fmt.Fprintf(&b, "   - 產地：%s\n", item.Origin)
		fmt.Fprintf(&b, "   - 烘焙度：%s\n", item.Roast)
		fmt.Fprintf(&b, "   - 風味：%s\n", item.FlavorType)
		fmt.Fprintf(&b, "   - 酸度：%d/5\n", item.Acidity)
		fmt.Fprintf(&b, "   - 甜度：%d/5\n", item.Sweetness)
		fmt.Fprintf(&b, "   - 價格：$%d\n", item.Price)
		if item.Description != "" {
			fmt.Fprintf(&b, "   - 描述：%s\n", item.Description)
		}
	}
	b.WriteString("\n")
	return b.String()
}

// instructionText returns the template-specific directive placed between
// the product context and the current question.
func instructionText(template InstructionTemplate, topics []FollowUpTopic) string {
	switch template {
	case TemplateInterviewIntro:
		return "顧客還沒有透露口味偏好。請親切地介紹四大風味分類（花香、果香、堅果巧克力、濃郁厚實），並詢問顧客偏好哪一種。"
	case TemplateFollowUp:
		var asks []string
		for _, topic := range topics {
			asks = append(asks, followUpQuestionText[topic])
		}
		return fmt.Sprintf("顧客已經選定風味方向。請簡短回應，並詢問顧客%s，一次最多問兩個問題。", strings.Join(asks, "與"))
	case TemplateRecommend:
		return "請根據以上商品資料，推薦 2-3 款最適合顧客的咖啡豆，並說明推薦理由。"
	case TemplateMostExpensive:
		return "顧客想看最高價位的咖啡豆。以上商品已依價格由高到低排序，請介紹最頂級的選擇與其價值所在。"
	case TemplateCheapest:
		return "顧客想找最實惠的咖啡豆。以上商品已依價格由低到高排序，請推薦高性價比的選擇。"
	case TemplateMostPopular:
		return "顧客想看最熱門的咖啡豆。以上商品已依人氣排序，請介紹最受歡迎的選擇與受歡迎的原因。"
	case TemplateNoExactMatch:
		return "資料庫中沒有完全符合顧客條件的咖啡豆。請誠實告知找不到完全符合的商品，根據顧客的偏好描述最接近的替代方向，並邀請顧客放寬條件。"
	case TemplateSearchFailed:
		return "商品查詢暫時無法使用。請不要提及具體商品，改以咖啡知識與風味方向回答顧客的問題。"
	}
	return ""
}

// buildUserInstructions assembles the final user-facing instruction string:
// transcript, product context, template directive, then the current question.
func buildUserInstructions(question string, history []models.ConversationTurn, items []models.CatalogItem, template InstructionTemplate, topics []FollowUpTopic) string {
	var b strings.Builder
	b.WriteString(renderTranscript(history))
	b.WriteString(renderProductContext(items))
	if directive := instructionText(template, topics); directive != "" {
		b.WriteString(directive)
		b.WriteString("\n\n")
	}
	fmt.Fprintf(&b, "顧客: %s", question)
	return b.String()
}
