package functional_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/rpggio/docket/internal/protocol"
	"github.com/rpggio/docket/internal/testserver"
)

// openEvents subscribes to a channel's server-sent event stream and decodes
// each push into an outbound message.
func openEvents(t *testing.T, ts *testserver.TestServer, channel string) <-chan protocol.Outbound {
	t.Helper()

	ctx, cancel := context.WithCancel(context.Background())
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, ts.URL("/surfaces/"+channel+"/events"), nil)
	require.NoError(t, err)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	events := make(chan protocol.Outbound, 64)
	go func() {
		defer resp.Body.Close()
		scanner := bufio.NewScanner(resp.Body)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var msg protocol.Outbound
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &msg); err != nil {
				continue
			}
			events <- msg
		}
	}()
	t.Cleanup(cancel)
	return events
}

// postMessage sends one surface intent and expects it to be accepted.
func postMessage(t *testing.T, ts *testserver.TestServer, channel string, msg protocol.Inbound) {
	t.Helper()
	body, err := json.Marshal(msg)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL("/surfaces/"+channel+"/messages"), "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusAccepted, resp.StatusCode)
}

// readySurface opens the event stream and announces readiness, returning the
// live event feed.
func readySurface(t *testing.T, ts *testserver.TestServer, channel string) <-chan protocol.Outbound {
	t.Helper()
	events := openEvents(t, ts, channel)
	postMessage(t, ts, channel, protocol.Inbound{Kind: protocol.KindReady})
	return events
}

func postAction(t *testing.T, ts *testserver.TestServer, path string, payload any) *http.Response {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)

	resp, err := http.Post(ts.URL(path), "application/json", bytes.NewReader(body))
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// waitForEvent consumes the feed until a message matches, failing the test
// when nothing matches within the deadline.
func waitForEvent(t *testing.T, events <-chan protocol.Outbound, what string, match func(protocol.Outbound) bool) protocol.Outbound {
	t.Helper()
	timeout := time.After(5 * time.Second)
	for {
		select {
		case msg := <-events:
			if match(msg) {
				return msg
			}
		case <-timeout:
			t.Fatalf("timed out waiting for %s", what)
			return protocol.Outbound{}
		}
	}
}

func snapshotWithGlobalTitle(title string) func(protocol.Outbound) bool {
	return func(msg protocol.Outbound) bool {
		if msg.Kind != protocol.KindStateUpdate || msg.Snapshot == nil {
			return false
		}
		for _, view := range msg.Snapshot.Global.Items {
			if view.Title == title {
				return true
			}
		}
		return false
	}
}

func TestFunctional_ReadyDeliversFirstRenderState(t *testing.T) {
	ts := testserver.New(t, nil)

	events := readySurface(t, ts, protocol.ChannelGlobal)

	msg := waitForEvent(t, events, "initial state update", func(msg protocol.Outbound) bool {
		return msg.Kind == protocol.KindStateUpdate
	})
	require.NotNil(t, msg.Snapshot)
	require.Empty(t, msg.Snapshot.Global.Items)
	require.Equal(t, "Nothing on the list. Add a task to get started.", msg.Snapshot.Global.EmptyText)
	require.Equal(t, "My Tasks", msg.Snapshot.Global.Label)
	require.Equal(t, "Add task", msg.Snapshot.Strings.AddItem)
}

func TestFunctional_AgentMutationReachesEverySurface(t *testing.T) {
	ts := testserver.New(t, nil)

	globalEvents := readySurface(t, ts, protocol.ChannelGlobal)
	projectEvents := readySurface(t, ts, protocol.ChannelProjects)

	session := connect(t, ts)
	_ = callTool(t, session, "create_item", map[string]any{"title": "Visible everywhere"})

	waitForEvent(t, globalEvents, "state update on global channel",
		snapshotWithGlobalTitle("Visible everywhere"))
	waitForEvent(t, projectEvents, "state update on projects channel",
		snapshotWithGlobalTitle("Visible everywhere"))
}

func TestFunctional_SurfaceIntentMutatesAndRebroadcasts(t *testing.T) {
	ts := testserver.New(t, nil)

	events := readySurface(t, ts, protocol.ChannelGlobal)

	postMessage(t, ts, protocol.ChannelGlobal, protocol.Inbound{
		Kind:  protocol.KindCreateItem,
		Scope: "global",
		Title: "From the panel",
	})

	msg := waitForEvent(t, events, "state update after create intent",
		snapshotWithGlobalTitle("From the panel"))
	require.Len(t, msg.Snapshot.Global.Items, 1)
	require.Equal(t, 1, msg.Snapshot.Global.Items[0].Position)

	itemID := msg.Snapshot.Global.Items[0].ID
	postMessage(t, ts, protocol.ChannelGlobal, protocol.Inbound{
		Kind:   protocol.KindToggleComplete,
		Scope:  "global",
		ItemID: itemID,
	})

	waitForEvent(t, events, "state update after toggle intent", func(msg protocol.Outbound) bool {
		return msg.Kind == protocol.KindStateUpdate && msg.Snapshot != nil &&
			len(msg.Snapshot.Global.Items) == 1 && msg.Snapshot.Global.Items[0].Completed
	})
}

func TestFunctional_AutoDeleteCueAndRemovalOnWire(t *testing.T) {
	ts := testserver.New(t, nil)

	events := readySurface(t, ts, protocol.ChannelGlobal)

	session := connect(t, ts)
	var created itemPayload
	require.NoError(t, json.Unmarshal(callTool(t, session, "create_item", map[string]any{
		"title": "Done soon",
	}), &created))
	_ = callTool(t, session, "toggle_item", map[string]any{"item_id": created.ID})

	ts.Clock.Advance(1500 * time.Millisecond)

	cue := waitForEvent(t, events, "auto-delete cue", func(msg protocol.Outbound) bool {
		return msg.Kind == protocol.KindAutoDeleteCue
	})
	require.Equal(t, created.ID, cue.ItemID)
	require.Equal(t, 750, cue.DurationMs)

	ts.Clock.Advance(750 * time.Millisecond)

	final := waitForEvent(t, events, "state update after removal", func(msg protocol.Outbound) bool {
		return msg.Kind == protocol.KindStateUpdate && msg.Snapshot != nil &&
			len(msg.Snapshot.Global.Items) == 0
	})
	require.Equal(t, "All done. Nice work!", final.Snapshot.Global.EmptyText)
}

func TestFunctional_InlineActionsReachOwningSurface(t *testing.T) {
	ts := testserver.New(t, nil)

	projectEvents := readySurface(t, ts, protocol.ChannelProjects)

	resp := postAction(t, ts, "/actions/inline-create", map[string]any{
		"scope":        "workspace",
		"partitionKey": "app",
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	create := waitForEvent(t, projectEvents, "inline create push", func(msg protocol.Outbound) bool {
		return msg.Kind == protocol.KindStartInlineCreate
	})
	require.Equal(t, "app", create.PartitionKey)

	session := connect(t, ts)
	var created itemPayload
	require.NoError(t, json.Unmarshal(callTool(t, session, "create_item", map[string]any{
		"scope":         "workspace",
		"partition_key": "app",
		"title":         "Editable",
	}), &created))

	resp = postAction(t, ts, "/actions/inline-edit", map[string]any{
		"scope":        "workspace",
		"partitionKey": "app",
		"itemId":       created.ID,
	})
	require.Equal(t, http.StatusAccepted, resp.StatusCode)

	edit := waitForEvent(t, projectEvents, "inline edit push", func(msg protocol.Outbound) bool {
		return msg.Kind == protocol.KindStartInlineEdit
	})
	require.Equal(t, created.ID, edit.ItemID)
	require.Equal(t, "app", edit.PartitionKey)

	resp = postAction(t, ts, "/actions/inline-edit", map[string]any{
		"itemId": "missing",
	})
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
}
