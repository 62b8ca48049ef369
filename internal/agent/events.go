package agent

// Twilio Media Stream wire messages. Inbound and outbound share the same
// envelope; only the populated fields differ per event.

type streamEvent struct {
	Event     string        `json:"event"`
	StreamSID string        `json:"streamSid,omitempty"`
	Start     *startPayload `json:"start,omitempty"`
	Media     *mediaPayload `json:"media,omitempty"`
	Mark      *markPayload  `json:"mark,omitempty"`
}

type startPayload struct {
	StreamSID  string   `json:"streamSid"`
	AccountSID string   `json:"accountSid"`
	CallSID    string   `json:"callSid"`
	Tracks     []string `json:"tracks"`
}

type mediaPayload struct {
	Track     string `json:"track,omitempty"`
	Chunk     string `json:"chunk,omitempty"`
	Timestamp string `json:"timestamp,omitempty"`
	Payload   string `json:"payload"`
}

type markPayload struct {
	Name string `json:"name"`
}

// outbound message constructors

func mediaMessage(streamSID, b64payload string) streamEvent {
	return streamEvent{
		Event:     "media",
		StreamSID: streamSID,
		Media:     &mediaPayload{Payload: b64payload},
	}
}

func markMessage(streamSID, name string) streamEvent {
	return streamEvent{
		Event:     "mark",
		StreamSID: streamSID,
		Mark:      &markPayload{Name: name},
	}
}
