package model

import "time"

// LapProgress tracks lap counting for one session.
// LastLapTimestamp is zero until the first lap has been completed.
type LapProgress struct {
	CurrentLap       int       `json:"currentLap"`
	CanFinishLap     bool      `json:"canFinishLap"`
	LastLapTimestamp time.Time `json:"lastLapTimestamp"`
	LeftStartZone    bool      `json:"leftStartZone"`
}

// RaceSnapshot is the committed end-of-frame view handed to renderer, camera and UI.
// Velocity and checkpoint flags are deliberately absent.
type RaceSnapshot struct {
	SessionID     string     `json:"sessionId"`
	Frame         uint64     `json:"frame"`
	Position      Vec3       `json:"position"`
	Rotation      float64    `json:"rotation"`
	CameraMode    CameraMode `json:"cameraMode"`
	CurrentLap    int        `json:"currentLap"`
	TotalLaps     int        `json:"totalLaps"`
	Won           bool       `json:"won"`
	Started       bool       `json:"started"`
	ElapsedMillis int64      `json:"elapsedMillis"`
}

const CompletionMessageType = "BLOCK_COMPLETION"

// CompletionRecord is sent to the embedding page exactly once per session.
type CompletionRecord struct {
	Type             string `json:"type"`
	BlockID          string `json:"blockId,omitempty"`
	SessionID        string `json:"sessionId,omitempty"`
	Completed        bool   `json:"completed"`
	Score            int    `json:"score"`
	TimeSpentSeconds int    `json:"timeSpentSeconds"`
}
