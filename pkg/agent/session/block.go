package session

import (
	"encoding/json"
	"fmt"
)

type BlockType string

const (
	BlockText     BlockType = "text"
	BlockResearch BlockType = "research"
	BlockWidget   BlockType = "widget"
)

// Block is one addressable unit of a turn's output. Data is kept as raw JSON
// so patches can be applied without knowing the concrete payload type.
type Block struct {
	ID   string          `json:"id"`
	Type BlockType       `json:"type"`
	Data json.RawMessage `json:"data"`
}

// Sub-step types of a research block.
const (
	SubStepSearching     = "searching"
	SubStepSearchResults = "search_results"
	SubStepReasoning     = "reasoning"
)

type SubStep struct {
	ID        string          `json:"id"`
	Type      string          `json:"type"`
	Searching []string        `json:"searching,omitempty"`
	Reading   json.RawMessage `json:"reading,omitempty"`
	Reasoning string          `json:"reasoning,omitempty"`
}

type researchData struct {
	SubSteps []SubStep `json:"subSteps"`
}

type widgetData struct {
	WidgetType string      `json:"widgetType"`
	Params     interface{} `json:"params"`
}

func NewTextBlock(id, text string) Block {
	data, _ := json.Marshal(text)
	return Block{ID: id, Type: BlockText, Data: data}
}

func NewResearchBlock(id string) Block {
	data, _ := json.Marshal(researchData{SubSteps: []SubStep{}})
	return Block{ID: id, Type: BlockResearch, Data: data}
}

func NewWidgetBlock(id, widgetType string, params interface{}) (Block, error) {
	data, err := json.Marshal(widgetData{WidgetType: widgetType, Params: params})
	if err != nil {
		return Block{}, fmt.Errorf("marshal widget params: %w", err)
	}
	return Block{ID: id, Type: BlockWidget, Data: data}, nil
}

// Text decodes the payload of a text block.
func (b Block) Text() (string, error) {
	if b.Type != BlockText {
		return "", fmt.Errorf("block %s is %s, not text", b.ID, b.Type)
	}
	var s string
	if err := json.Unmarshal(b.Data, &s); err != nil {
		return "", err
	}
	return s, nil
}

// SubSteps decodes the sub-step list of a research block.
func (b Block) SubSteps() ([]SubStep, error) {
	if b.Type != BlockResearch {
		return nil, fmt.Errorf("block %s is %s, not research", b.ID, b.Type)
	}
	var d researchData
	if err := json.Unmarshal(b.Data, &d); err != nil {
		return nil, err
	}
	return d.SubSteps, nil
}

func (b Block) clone() Block {
	data := make(json.RawMessage, len(b.Data))
	copy(data, b.Data)
	return Block{ID: b.ID, Type: b.Type, Data: data}
}
