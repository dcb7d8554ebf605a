// Package ipc implements C8: the publish/subscribe bus carrying IPC
// messages between the watcher (camera 1) and flight (camera 2) processes
// (spec.md §4.8), grounded on the teacher's NATS transport step.
package ipc

import "github.com/pitrac/pitrac-go/internal/clubdata"

// Kind enumerates the IPC message kinds spec.md §3 and §4.8 name.
type Kind string

const (
	KindArmCamera2      Kind = "ArmCamera2"
	KindCamera2PreImage Kind = "Camera2PreImage"
	KindCamera2Image    Kind = "Camera2Image"
	KindResult          Kind = "Result"
	KindShutdown        Kind = "Shutdown"
	KindControlMessage  Kind = "ControlMessage"
)

// ControlAction distinguishes the payload shapes ControlMessage carries:
// a club change from the FSM side, or an arm/disarm handshake from a
// simulator sink's receiver thread.
type ControlAction string

const (
	ActionChangeClub ControlAction = "ChangeClub"
	ActionArm        ControlAction = "Arm"
	ActionDisarm     ControlAction = "Disarm"
)

// ControlPayload is the typed payload carried by a ControlMessage.
type ControlPayload struct {
	Action   ControlAction    `json:"action"`
	ClubType clubdata.ClubType `json:"club_type,omitempty"`
}

// ResultPayload mirrors the shot_result tuple spec.md §3 defines, carried
// by a Result message.
type ResultPayload struct {
	ShotNumber  int     `json:"shot_number"`
	SpeedMPH    float32 `json:"speed_mph"`
	VLADeg      float32 `json:"vla_deg"`
	HLADeg      float32 `json:"hla_deg"`
	BackSpinRPM float32 `json:"back_spin_rpm"`
	SideSpinRPM float32 `json:"side_spin_rpm"`
	ClubType    clubdata.ClubType `json:"club_type"`
}

// Message is the (kind, optional image buffer, optional typed payload)
// tuple from spec.md §3. Image is the raw encoded bytes (PNG) of a camera
// frame; Control and Result are mutually exclusive with each other and
// with Image, populated according to Kind.
type Message struct {
	Kind     Kind            `json:"kind"`
	SenderID string          `json:"sender_id"`
	Image    []byte          `json:"image,omitempty"`
	Control  *ControlPayload `json:"control,omitempty"`
	Result   *ResultPayload  `json:"result,omitempty"`
}
