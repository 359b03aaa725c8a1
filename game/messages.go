package game

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Inbound actions.
const (
	ActCreateRoom         = "createRoom"
	ActJoinRoom           = "joinRoom"
	ActClick              = "click"
	ActBuyUpgrade         = "buyUpgrade"
	ActOpenFactoryStation = "openFactoryStation"
	ActDefendFactory      = "defendFactory"
)

// Outbound notifications.
const (
	MsgRoomCreated         = "roomCreated"
	MsgRoomUpdate          = "roomUpdate"
	MsgGameStarted         = "gameStarted"
	MsgCursorsUpdate       = "cursorsUpdate"
	MsgScoreUpdate         = "scoreUpdate"
	MsgAutoUpdate          = "autoUpdate"
	MsgCriticalHit         = "criticalHit"
	MsgGoldenClick         = "goldenClick"
	MsgUpgradeBought       = "upgradeBought"
	MsgThreeDActivated     = "threeDActivated"
	MsgRainbowActivated    = "rainbowActivated"
	MsgFactoryBuilt        = "factoryBuilt"
	MsgFactoryEventStarted = "factoryEventStarted"
	MsgFactoryEventUpdate  = "factoryEventUpdate"
	MsgFactoryEventSuccess = "factoryEventSuccess"
	MsgFactoryEventFailed  = "factoryEventFailed"
	MsgPlayerKicked        = "playerKicked"
	MsgCheatDetected       = "cheatDetected"
	MsgError               = "error"
)

// Envelope is the frame for every message in both directions.
type Envelope struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

func Encode(t string, payload any) ([]byte, error) {
	if t == "" {
		return nil, fmt.Errorf("encode: empty message type")
	}
	e := Envelope{Type: t}
	if payload != nil {
		pb, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", t, err)
		}
		e.Payload = pb
	}
	return json.Marshal(e)
}

func DecodeEnvelope(b []byte) (Envelope, error) {
	if len(b) == 0 {
		return Envelope{}, fmt.Errorf("decode: empty frame")
	}
	var e Envelope
	if err := json.Unmarshal(b, &e); err != nil {
		return Envelope{}, err
	}
	return e, nil
}

// DecodePayload unmarshals the payload of env into T. A missing payload
// yields the zero value.
func DecodePayload[T any](env Envelope) (T, error) {
	var out T
	if len(env.Payload) == 0 || string(env.Payload) == "null" {
		return out, nil
	}
	err := json.Unmarshal(env.Payload, &out)
	return out, err
}

func isDecodeError(err error) bool {
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	return errors.As(err, &syntaxErr) || errors.As(err, &typeErr)
}

// inbound payloads

type CreateRoomPayload struct {
	Capacity int `json:"capacity"`
}

type JoinRoomPayload struct {
	Code string `json:"code"`
}

type BuyUpgradePayload struct {
	UpgradeName string `json:"upgradeName"`
}

// outbound payloads

type RoomCreatedPayload struct {
	Code string `json:"code"`
}

type ScoreUpdatePayload struct {
	Score      int64  `json:"score"`
	ClickerID  string `json:"clickerId"`
	Points     int64  `json:"points"`
	IsCritical bool   `json:"isCritical"`
	IsGolden   bool   `json:"isGolden"`
}

type PointsPayload struct {
	Points int64 `json:"points"`
}

type AutoUpdatePayload struct {
	Score    int64    `json:"score"`
	Upgrades Upgrades `json:"upgrades"`
}

type UpgradeBoughtPayload struct {
	UpgradeName string   `json:"upgradeName"`
	Cost        int64    `json:"cost"`
	BuyerID     string   `json:"buyerId"`
	Upgrades    Upgrades `json:"upgrades"`
	Score       int64    `json:"score"`
}

type CursorsPayload struct {
	Cursors []CursorView `json:"cursors"`
}

type FactoryEventPayload struct {
	TimeLeft     int       `json:"timeLeft"`
	DefenseSpent int64     `json:"defenseSpent"`
	Score        int64     `json:"score"`
	Upgrades     *Upgrades `json:"upgrades,omitempty"`
}

type PlayerKickedPayload struct {
	PlayerID string `json:"playerId"`
	Reason   string `json:"reason"`
}

type ReasonPayload struct {
	Reason string `json:"reason"`
}

type ErrorPayload struct {
	Message string `json:"message"`
}
