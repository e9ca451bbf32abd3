package publish

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"regexp"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/playwright-community/playwright-go"
)

// extractComputerUseAction inspects a model turn's content for a
// computer_use tool_use block, or for plain text signaling the flow is
// complete (the model is instructed to report the published URL in its
// final message once no more tool calls are needed).
func extractComputerUseAction(msg *anthropic.Message) (toolUse *anthropic.ToolUseBlock, done bool, finalText string) {
	var text strings.Builder
	for _, block := range msg.Content {
		switch v := block.AsAny().(type) {
		case anthropic.ToolUseBlock:
			tu := v
			toolUse = &tu
		case anthropic.TextBlock:
			text.WriteString(v.Text)
		}
	}
	if toolUse == nil {
		return nil, true, text.String()
	}
	return toolUse, false, text.String()
}

var urlRe = regexp.MustCompile(`https?://\S+`)

func extractURL(text string) string {
	return urlRe.FindString(text)
}

// computerAction is the subset of the computer-use tool's action vocabulary
// this provider supports: clicking, typing, and key presses are enough to
// drive a standard CMS publish form.
type computerAction struct {
	Action string `json:"action"`
	Coordinate [2]int `json:"coordinate,omitempty"`
	Text   string `json:"text,omitempty"`
}

func applyComputerAction(page playwright.Page, toolUse *anthropic.ToolUseBlock) error {
	var action computerAction
	if err := unmarshalToolInput(toolUse.Input, &action); err != nil {
		return err
	}

	switch action.Action {
	case "screenshot":
		return nil
	case "left_click":
		return page.Mouse().Click(float64(action.Coordinate[0]), float64(action.Coordinate[1]))
	case "type":
		return page.Keyboard().Type(action.Text)
	case "key":
		return page.Keyboard().Press(action.Text)
	default:
		return nil
	}
}

func unmarshalToolInput(raw []byte, v *computerAction) error {
	return json.Unmarshal(raw, v)
}

// nextTurnMessage feeds the model a fresh screenshot as a tool_result so it
// can decide its next action, the standard computer-use loop shape.
func nextTurnMessage(page playwright.Page) anthropic.MessageParam {
	shot, err := page.Screenshot()
	if err != nil {
		return anthropic.NewUserMessage(anthropic.NewTextBlock("screenshot failed"))
	}
	return anthropic.NewUserMessage(anthropic.NewImageBlockBase64("image/png", base64.StdEncoding.EncodeToString(shot)))
}

func writeScreenshot(path string, data []byte) error {
	return os.WriteFile(path, data, 0o644)
}
