package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/klevoclub/klevo/internal/game/fishing"
	"github.com/klevoclub/klevo/internal/model"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	// The game client is a browser app served from another origin.
	CheckOrigin: func(*http.Request) bool { return true },
}

// clientMessage is one action frame from the browser.
type clientMessage struct {
	Action       string  `json:"action"`
	RodID        int64   `json:"rod_id,omitempty"`
	SessionID    int64   `json:"session_id,omitempty"`
	PointX       float64 `json:"point_x,omitempty"`
	PointY       float64 `json:"point_y,omitempty"`
	IsRetrieving *bool   `json:"is_retrieving,omitempty"`
	BaitID       int64   `json:"bait_id,omitempty"`
	GroundbaitID int64   `json:"groundbait_id,omitempty"`
	FlavoringID  *int64  `json:"flavoring_id,omitempty"`
}

type sessionView struct {
	ID               int64   `json:"id"`
	RodID            int64   `json:"rod_id"`
	Slot             int     `json:"slot"`
	State            string  `json:"state"`
	CastX            float64 `json:"cast_x"`
	CastY            float64 `json:"cast_y"`
	IsRetrieving     bool    `json:"is_retrieving"`
	RetrieveProgress float64 `json:"retrieve_progress"`
}

type fightView struct {
	Tension       float64 `json:"tension"`
	Distance      float64 `json:"distance"`
	RodDurability float64 `json:"rod_durability"`
}

type gameTimeView struct {
	Hour      int    `json:"hour"`
	Day       int    `json:"day"`
	TimeOfDay string `json:"time_of_day"`
}

func viewSessions(sessions []*model.FishingSession) []sessionView {
	out := make([]sessionView, 0, len(sessions))
	for _, s := range sessions {
		out = append(out, sessionView{
			ID:               s.ID,
			RodID:            s.RodID,
			Slot:             s.Slot,
			State:            string(s.State),
			CastX:            s.CastX,
			CastY:            s.CastY,
			IsRetrieving:     s.Retrieving,
			RetrieveProgress: s.RetrieveProgress,
		})
	}
	return out
}

// wsClient is one connected player. Writes are serialized by mu; gorilla
// connections allow a single writer.
type wsClient struct {
	srv      *Server
	conn     *websocket.Conn
	playerID int64

	mu sync.Mutex
}

func (c *wsClient) send(payload any) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
	return c.conn.WriteJSON(payload)
}

func (c *wsClient) sendError(message string) {
	_ = c.send(map[string]any{"type": "error", "message": message})
}

// handleWS upgrades the connection and runs the session protocol: an
// initial state frame, a server tick loop at the configured cadence, and
// a read loop dispatching player actions.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	playerID, ok := s.playerFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "invalid token")
		return
	}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Warn("websocket upgrade failed", "player", playerID, "error", err)
		return
	}
	defer conn.Close()

	client := &wsClient{srv: s, conn: conn, playerID: playerID}
	s.log.Info("player connected", "player", playerID, "remote", r.RemoteAddr)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	client.pushState(ctx)
	go client.tickLoop(ctx)

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			break
		}
		var msg clientMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			client.sendError("malformed message")
			continue
		}
		client.dispatch(ctx, msg)
	}
	s.log.Info("player disconnected", "player", playerID)
}

// tickLoop drives the session timers while the player is connected and
// pushes a state frame after every tick.
func (c *wsClient) tickLoop(ctx context.Context) {
	ticker := time.NewTicker(c.srv.tick)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			res, err := c.srv.engine.Tick(ctx, c.playerID)
			if err != nil {
				c.srv.log.Error("tick failed", "player", c.playerID, "error", err)
				continue
			}
			c.pushTick(res)
		}
	}
}

func (c *wsClient) pushTick(res fishing.TickResult) {
	frame := map[string]any{
		"type":      "state",
		"sessions":  viewSessions(res.Sessions),
		"fights":    viewFights(res.Fights),
		"game_time": viewGameTime(res.GameTime),
	}
	// Call out strikeable sessions so the client can flash the rod.
	var bites []int64
	for _, s := range res.Sessions {
		if s.State == model.StateBite {
			bites = append(bites, s.ID)
		}
	}
	if len(bites) > 0 {
		frame["bites"] = bites
	}
	_ = c.send(frame)
}

// pushState sends a state frame outside the tick cadence, after an action
// changed the world.
func (c *wsClient) pushState(ctx context.Context) {
	res, err := c.srv.engine.Tick(ctx, c.playerID)
	if err != nil {
		c.srv.log.Error("state snapshot failed", "player", c.playerID, "error", err)
		return
	}
	c.pushTick(res)
}

func viewFights(fights map[int64]*model.FightState) map[string]fightView {
	out := make(map[string]fightView, len(fights))
	for id, f := range fights {
		out[strconv.FormatInt(id, 10)] = fightView{
			Tension:       f.LineTension,
			Distance:      f.Distance,
			RodDurability: f.RodDurability,
		}
	}
	return out
}

func viewGameTime(gt model.GameTime) gameTimeView {
	return gameTimeView{Hour: gt.Hour, Day: gt.Day, TimeOfDay: string(gt.TimeOfDay())}
}

func (c *wsClient) dispatch(ctx context.Context, msg clientMessage) {
	switch msg.Action {
	case "cast":
		c.handleCast(ctx, msg)
	case "strike":
		c.handleStrike(ctx, msg)
	case "reel_in":
		c.handleFight(ctx, msg, c.srv.engine.ReelIn)
	case "pull":
		c.handleFight(ctx, msg, c.srv.engine.PullRod)
	case "wait":
		c.handleFight(ctx, msg, c.srv.engine.Wait)
	case "keep":
		c.handleKeep(ctx, msg)
	case "release":
		c.handleRelease(ctx, msg)
	case "retrieve":
		c.handleRetrieve(ctx, msg)
	case "update_retrieve":
		c.handleUpdateRetrieve(ctx, msg)
	case "change_bait":
		c.handleChangeBait(ctx, msg)
	case "groundbait":
		c.handleGroundbait(ctx, msg)
	default:
		c.sendError("unknown action: " + msg.Action)
	}
}

func (c *wsClient) handleCast(ctx context.Context, msg clientMessage) {
	if msg.RodID == 0 {
		c.sendError("rod_id is required")
		return
	}
	res, err := c.srv.engine.Cast(ctx, c.playerID, msg.RodID, msg.PointX, msg.PointY)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	_ = c.send(map[string]any{"type": "cast_ok", "session_id": res.SessionID, "slot": res.Slot})
	c.pushState(ctx)
}

func (c *wsClient) handleStrike(ctx context.Context, msg clientMessage) {
	if msg.SessionID == 0 {
		c.sendError("session_id is required")
		return
	}
	res, err := c.srv.engine.Strike(ctx, c.playerID, msg.SessionID)
	if err != nil {
		if errors.Is(err, fishing.ErrExpired) {
			_ = c.send(map[string]any{"type": "strike_result", "result": "expired", "session_id": msg.SessionID})
			c.pushState(ctx)
			return
		}
		c.sendError(err.Error())
		return
	}
	_ = c.send(map[string]any{
		"type":       "strike_ok",
		"session_id": res.SessionID,
		"fish":       res.FishName,
		"species_id": res.SpeciesID,
		"tension":    res.Tension,
		"distance":   res.Distance,
	})
	c.pushState(ctx)
}

func (c *wsClient) handleFight(ctx context.Context, msg clientMessage, action func(context.Context, int64, int64) (fishing.FightResult, error)) {
	if msg.SessionID == 0 {
		c.sendError("session_id is required")
		return
	}
	res, err := action(ctx, c.playerID, msg.SessionID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	switch res.Result {
	case fishing.OutcomeCaught:
		_ = c.send(map[string]any{
			"type":       "fight_result",
			"result":     string(res.Result),
			"session_id": res.SessionID,
			"fish":       res.FishName,
			"species_id": res.SpeciesID,
			"weight":     res.Weight,
			"length":     res.Length,
			"rarity":     string(res.Rarity),
		})
	case fishing.OutcomeLineBreak, fishing.OutcomeRodBreak:
		_ = c.send(map[string]any{
			"type":       "fight_result",
			"result":     string(res.Result),
			"session_id": res.SessionID,
		})
	default:
		_ = c.send(map[string]any{
			"type":           "fight_result",
			"result":         string(fishing.OutcomeFighting),
			"session_id":     res.SessionID,
			"tension":        res.Tension,
			"distance":       res.Distance,
			"rod_durability": res.RodDurability,
		})
	}
	c.pushState(ctx)
}

func (c *wsClient) handleKeep(ctx context.Context, msg clientMessage) {
	if msg.SessionID == 0 {
		c.sendError("session_id is required")
		return
	}
	res, err := c.srv.engine.Keep(ctx, c.playerID, msg.SessionID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	_ = c.send(map[string]any{
		"type":         "keep_result",
		"species_id":   res.Fish.SpeciesID,
		"weight":       res.Fish.Weight,
		"length":       res.Fish.Length,
		"is_record":    res.Fish.IsRecord,
		"quests":       res.SideEffects.CompletedQuests,
		"achievements": res.SideEffects.NewAchievements,
	})
	c.pushState(ctx)
}

func (c *wsClient) handleRelease(ctx context.Context, msg clientMessage) {
	if msg.SessionID == 0 {
		c.sendError("session_id is required")
		return
	}
	res, err := c.srv.engine.Release(ctx, c.playerID, msg.SessionID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	_ = c.send(map[string]any{
		"type":        "release_result",
		"karma_bonus": res.KarmaBonus,
		"karma_total": res.KarmaTotal,
	})
	c.pushState(ctx)
}

func (c *wsClient) handleRetrieve(ctx context.Context, msg clientMessage) {
	if msg.SessionID == 0 {
		c.sendError("session_id is required")
		return
	}
	if err := c.srv.engine.Retrieve(ctx, c.playerID, msg.SessionID); err != nil {
		c.sendError(err.Error())
		return
	}
	_ = c.send(map[string]any{"type": "retrieve_ok", "session_id": msg.SessionID})
	c.pushState(ctx)
}

func (c *wsClient) handleUpdateRetrieve(ctx context.Context, msg clientMessage) {
	if msg.SessionID == 0 || msg.IsRetrieving == nil {
		c.sendError("session_id and is_retrieving are required")
		return
	}
	if err := c.srv.engine.SetRetrieving(ctx, c.playerID, msg.SessionID, *msg.IsRetrieving); err != nil {
		c.sendError(err.Error())
		return
	}
	_ = c.send(map[string]any{
		"type":          "update_retrieve_ok",
		"session_id":    msg.SessionID,
		"is_retrieving": *msg.IsRetrieving,
	})
}

func (c *wsClient) handleChangeBait(ctx context.Context, msg clientMessage) {
	if msg.SessionID == 0 || msg.BaitID == 0 {
		c.sendError("session_id and bait_id are required")
		return
	}
	res, err := c.srv.engine.ChangeBait(ctx, c.playerID, msg.SessionID, msg.BaitID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	_ = c.send(map[string]any{
		"type":           "change_bait_ok",
		"session_id":     res.SessionID,
		"new_bait":       res.NewBaitName,
		"bait_remaining": res.Remaining,
	})
	c.pushState(ctx)
}

func (c *wsClient) handleGroundbait(ctx context.Context, msg clientMessage) {
	if msg.GroundbaitID == 0 {
		c.sendError("groundbait_id is required")
		return
	}
	res, err := c.srv.engine.ApplyGroundbait(ctx, c.playerID, msg.GroundbaitID, msg.FlavoringID)
	if err != nil {
		c.sendError(err.Error())
		return
	}
	_ = c.send(map[string]any{
		"type":           "groundbait_ok",
		"duration_hours": res.DurationHours,
		"flavoring":      res.FlavoringName,
	})
}
