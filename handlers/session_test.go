package handlers

import (
	"context"
	"encoding/json"
	"reflect"
	"testing"

	"attendance/faces"

	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"
)

type inbound struct {
	mt   int
	data []byte
}

func text(s string) inbound   { return inbound{websocket.TextMessage, []byte(s)} }
func binary(s string) inbound { return inbound{websocket.BinaryMessage, []byte(s)} }

// fakeConn replays inbound messages and then reports a normal close
type fakeConn struct {
	in       []inbound
	out      [][]byte
	reads    int
	writeErr error
	events   *[]string
}

func (c *fakeConn) ReadMessage() (int, []byte, error) {
	if c.reads >= len(c.in) {
		return -1, nil, &websocket.CloseError{Code: websocket.CloseNormalClosure}
	}
	m := c.in[c.reads]
	c.reads++
	return m.mt, m.data, nil
}

func (c *fakeConn) WriteMessage(mt int, data []byte) error {
	if c.writeErr != nil {
		return c.writeErr
	}
	if c.events != nil {
		*c.events = append(*c.events, "reply")
	}
	c.out = append(c.out, data)
	return nil
}

// fakeProcessor maps the frame payload to a canned result, "bad" fails to decode, "boom" panics
type fakeProcessor struct {
	results map[string]faces.Result
	frames  []string
}

func (p *fakeProcessor) Process(frame []byte) (faces.Result, error) {
	p.frames = append(p.frames, string(frame))
	switch string(frame) {
	case "bad":
		return faces.Result{}, faces.ErrUndecodableFrame
	case "boom":
		panic("boom")
	}
	return p.results[string(frame)], nil
}

type recordCall struct {
	seance  string
	student string
}

type fakeRecorder struct {
	calls  []recordCall
	events *[]string
}

func (r *fakeRecorder) Record(ctx context.Context, seanceID, student string) bool {
	r.calls = append(r.calls, recordCall{seanceID, student})
	if r.events != nil {
		*r.events = append(*r.events, "record "+student)
	}
	return true
}

var aliceResult = faces.Result{
	Detections: []faces.Detection{{ID: "Alice", Left: 10, Top: 12, Right: 40, Bottom: 44}},
	Identities: []string{"Alice"},
	ImageSize:  faces.ImageSize{Width: 192, Height: 144},
}

func newTestSession(t *testing.T, in ...inbound) (*session, *fakeConn, *fakeProcessor, *fakeRecorder) {
	conn := &fakeConn{in: in}
	processor := &fakeProcessor{results: map[string]faces.Result{"alice": aliceResult}}
	recorder := &fakeRecorder{}
	return newSession(conn, processor, recorder, zaptest.NewLogger(t)), conn, processor, recorder
}

func TestSession_Transitions(t *testing.T) {
	s, _, _, _ := newTestSession(t,
		binary("stray"),
		text(`{"seance_id": 42}`),
		text(`{"seance_id": 43}`),
		text(`{"seance_id": 42}`),
		binary("alice"),
	)
	want := []sessionState{
		stateAwaitingHeader, // binary where a header was expected
		stateAwaitingFrame,  // header accepted
		stateAwaitingHeader, // text where a frame was expected drops the header
		stateAwaitingFrame,
		stateProcessing,
		stateAwaitingHeader, // reply sent
		stateClosed,         // peer closed
	}
	for i, w := range want {
		s.step(context.Background())
		if s.state != w {
			t.Fatalf("after step %d state = %v, want %v", i, s.state, w)
		}
	}
}

func TestSession_ProtocolResilience(t *testing.T) {
	tests := []struct {
		name        string
		in          []inbound
		wantReplies int
		wantRecords []recordCall
		wantFrames  []string
	}{
		{
			"binary instead of header",
			[]inbound{binary("stray"), text(`{"seance_id": 42}`), binary("alice")},
			1, []recordCall{{"42", "Alice"}}, []string{"alice"},
		},
		{
			"invalid JSON header",
			[]inbound{text(`{"seance_id": `), text(`{"seance_id": 42}`), binary("alice")},
			1, []recordCall{{"42", "Alice"}}, []string{"alice"},
		},
		{
			"missing seance_id",
			[]inbound{
				text(`{"course": 1}`),
				text(`{"seance_id": null}`),
				text(`{"seance_id": ""}`),
				text(`{"seance_id": {"id": 1}}`),
				text(`{"seance_id": 42}`),
				binary("alice"),
			},
			1, []recordCall{{"42", "Alice"}}, []string{"alice"},
		},
		{
			"text instead of frame drops the header",
			[]inbound{text(`{"seance_id": 42}`), text(`{"seance_id": 43}`), binary("alice")},
			0, nil, nil,
		},
		{
			"undecodable frame",
			[]inbound{text(`{"seance_id": 42}`), binary("bad"), text(`{"seance_id": 42}`), binary("alice")},
			1, []recordCall{{"42", "Alice"}}, []string{"bad", "alice"},
		},
		{
			"string seance id and unknown fields",
			[]inbound{text(`{"seance_id": "S-101", "room": "B12"}`), binary("alice")},
			1, []recordCall{{"S-101", "Alice"}}, []string{"alice"},
		},
		{
			"frame without faces",
			[]inbound{text(`{"seance_id": 42}`), binary("empty")},
			1, nil, []string{"empty"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, conn, processor, recorder := newTestSession(t, tt.in...)
			s.run(context.Background())
			if s.state != stateClosed {
				t.Errorf("state = %v, want closed", s.state)
			}
			if conn.reads != len(tt.in) {
				t.Errorf("read %d messages, want %d", conn.reads, len(tt.in))
			}
			if len(conn.out) != tt.wantReplies {
				t.Errorf("replies = %d, want %d", len(conn.out), tt.wantReplies)
			}
			if !reflect.DeepEqual(recorder.calls, tt.wantRecords) {
				t.Errorf("records = %v, want %v", recorder.calls, tt.wantRecords)
			}
			if !reflect.DeepEqual(processor.frames, tt.wantFrames) {
				t.Errorf("processed frames = %v, want %v", processor.frames, tt.wantFrames)
			}
		})
	}
}

func TestSession_RecordsEachIdentityOnceBeforeReplying(t *testing.T) {
	events := []string{}
	s, conn, processor, recorder := newTestSession(t, text(`{"seance_id": 42}`), binary("class"))
	conn.events = &events
	recorder.events = &events
	processor.results["class"] = faces.Result{
		Detections: []faces.Detection{
			{ID: "Alice", Left: 0, Top: 0, Right: 10, Bottom: 10},
			{ID: "Bob", Left: 20, Top: 0, Right: 30, Bottom: 10},
			{ID: "Alice", Left: 40, Top: 0, Right: 50, Bottom: 10},
		},
		Identities: []string{"Alice", "Bob"},
		ImageSize:  faces.ImageSize{Width: 60, Height: 20},
	}
	s.run(context.Background())

	if want := []string{"record Alice", "record Bob", "reply"}; !reflect.DeepEqual(events, want) {
		t.Errorf("events = %v, want %v", events, want)
	}
	var reply Reply
	if err := json.Unmarshal(conn.out[0], &reply); err != nil {
		t.Fatalf("reply is not JSON: %v", err)
	}
	if len(reply.Detections) != 3 {
		t.Errorf("reply detections = %d, want 3", len(reply.Detections))
	}
}

func TestSession_ReplyFormat(t *testing.T) {
	s, conn, _, _ := newTestSession(t, text(`{"seance_id": 42}`), binary("alice"))
	s.run(context.Background())
	if len(conn.out) != 1 {
		t.Fatalf("replies = %d, want 1", len(conn.out))
	}
	var got map[string]interface{}
	if err := json.Unmarshal(conn.out[0], &got); err != nil {
		t.Fatalf("reply is not JSON: %v", err)
	}
	want := map[string]interface{}{
		"detections": []interface{}{
			map[string]interface{}{"id": "Alice", "left": 10.0, "top": 12.0, "right": 40.0, "bottom": 44.0},
		},
		"image_size": map[string]interface{}{"width": 192.0, "height": 144.0},
	}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("reply = %v, want %v", got, want)
	}

	// An empty frame still carries an empty list, not null
	s, conn, _, _ = newTestSession(t, text(`{"seance_id": 42}`), binary("nothing"))
	s.processor.(*fakeProcessor).results["nothing"] = faces.Result{Detections: []faces.Detection{}, ImageSize: faces.ImageSize{Width: 1, Height: 1}}
	s.run(context.Background())
	if string(conn.out[0]) != `{"detections":[],"image_size":{"width":1,"height":1}}` {
		t.Errorf("empty reply = %s", conn.out[0])
	}
}

func TestSession_PanicClosesTheConnection(t *testing.T) {
	s, conn, _, recorder := newTestSession(t,
		text(`{"seance_id": 42}`),
		binary("boom"),
		text(`{"seance_id": 42}`),
		binary("alice"),
	)
	s.run(context.Background())
	if s.state != stateClosed {
		t.Errorf("state = %v, want closed", s.state)
	}
	if conn.reads != 2 {
		t.Errorf("read %d messages after the failure, want to stop at 2", conn.reads)
	}
	if len(recorder.calls) != 0 || len(conn.out) != 0 {
		t.Errorf("nothing should be recorded or sent after a failure")
	}
}

func TestSession_WriteFailureCloses(t *testing.T) {
	s, conn, _, recorder := newTestSession(t,
		text(`{"seance_id": 42}`),
		binary("alice"),
		text(`{"seance_id": 42}`),
	)
	conn.writeErr = websocket.ErrCloseSent
	s.run(context.Background())
	if conn.reads != 2 {
		t.Errorf("reads = %d, want 2", conn.reads)
	}
	// Attendance is committed before the reply goes out
	if len(recorder.calls) != 1 {
		t.Errorf("records = %v, want one", recorder.calls)
	}
}

func TestSession_Ping(t *testing.T) {
	s, conn, _, _ := newTestSession(t, text("ping"), text(`{"seance_id": 1}`), binary("alice"))
	s.run(context.Background())
	if len(conn.out) != 2 || string(conn.out[0]) != "pong" {
		t.Errorf("out = %q, want pong then a reply", conn.out)
	}
}

func TestSeanceID_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		name    string
		in      string
		want    SeanceID
		wantErr bool
	}{
		{"number", `{"seance_id": 42}`, "42", false},
		{"string", `{"seance_id": "42"}`, "42", false},
		{"null", `{"seance_id": null}`, "", true},
		{"bool", `{"seance_id": true}`, "", true},
		{"array", `{"seance_id": [1]}`, "", true},
		{"missing", `{}`, "", true},
		{"not JSON", `seance 42`, "", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h, err := parseHeader([]byte(tt.in))
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseHeader() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && h.SeanceID != tt.want {
				t.Errorf("SeanceID = %q, want %q", h.SeanceID, tt.want)
			}
		})
	}
}
