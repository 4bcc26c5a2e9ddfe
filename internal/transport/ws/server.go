// Package ws exposes the session to human (or scripted) controllers over
// websockets. One connection claims one playable faction; observations go
// out when one of the faction's actors is due, and the next ACT on the
// wire is that actor's proposal.
package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"hollowdeep.dev/internal/protocol"
	"hollowdeep.dev/internal/sim/content"
	"hollowdeep.dev/internal/sim/world"
)

const (
	writeWait   = 5 * time.Second
	readWait    = 60 * time.Second
	proposeWait = 30 * time.Second
	outQueue    = 64
)

type Hub struct {
	params  protocol.SessionParams
	cats    *content.Catalogs
	signals chan world.Request
	log     *log.Logger

	upgrader websocket.Upgrader

	mu      sync.Mutex
	clients map[world.FactionID]*client
}

type client struct {
	token string
	out   chan []byte
	acts  chan protocol.ActMsg
	done  chan struct{}
}

func NewHub(params protocol.SessionParams, cats *content.Catalogs, signals chan world.Request, logger *log.Logger) *Hub {
	return &Hub{
		params:  params,
		cats:    cats,
		signals: signals,
		log:     logger,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  64 * 1024,
			WriteBufferSize: 64 * 1024,
			CheckOrigin:     func(r *http.Request) bool { return true }, // dev default
		},
		clients: map[world.FactionID]*client{},
	}
}

func (h *Hub) Handler() http.HandlerFunc {
	return func(rw http.ResponseWriter, r *http.Request) {
		conn, err := h.upgrader.Upgrade(rw, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		faction, c := h.handshake(conn)
		if c == nil {
			return
		}
		defer h.release(faction, c)

		go func() {
			for {
				select {
				case <-c.done:
					return
				case b, ok := <-c.out:
					if !ok {
						return
					}
					_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
					if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
						return
					}
				}
			}
		}()

		for {
			_ = conn.SetReadDeadline(time.Now().Add(readWait))
			_, msg, err := conn.ReadMessage()
			if err != nil {
				close(c.done)
				return
			}
			base, err := protocol.DecodeBase(msg)
			if err != nil || base.Type != protocol.TypeAct {
				continue
			}
			var act protocol.ActMsg
			if err := json.Unmarshal(msg, &act); err != nil {
				continue
			}
			if act.ProtocolVersion != protocol.Version {
				continue
			}
			select {
			case c.acts <- act:
			default:
				h.log.Printf("dropping ACT from %s: no proposal pending", faction)
			}
		}
	}
}

func (h *Hub) handshake(conn *websocket.Conn) (world.FactionID, *client) {
	reject := func(reason string) {
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, reason), time.Now().Add(time.Second))
	}

	_ = conn.SetReadDeadline(time.Now().Add(writeWait))
	_, msg, err := conn.ReadMessage()
	if err != nil {
		return "", nil
	}
	base, err := protocol.DecodeBase(msg)
	if err != nil || base.Type != protocol.TypeHello {
		reject("expected HELLO")
		return "", nil
	}
	var hello protocol.HelloMsg
	if err := json.Unmarshal(msg, &hello); err != nil {
		reject(protocol.ErrProtoBadRequest)
		return "", nil
	}
	if hello.ProtocolVersion != protocol.Version {
		reject("bad protocol_version")
		return "", nil
	}
	def, ok := h.cats.Factions.Defs[hello.FactionID]
	if !ok || !def.Playable {
		reject(protocol.ErrFactionUnknown)
		return "", nil
	}
	faction := world.FactionID(hello.FactionID)

	c := &client{
		token: uuid.NewString(),
		out:   make(chan []byte, outQueue),
		acts:  make(chan protocol.ActMsg, 1),
		done:  make(chan struct{}),
	}
	h.mu.Lock()
	if _, taken := h.clients[faction]; taken {
		h.mu.Unlock()
		reject(protocol.ErrFactionTaken)
		return "", nil
	}
	h.clients[faction] = c
	h.mu.Unlock()

	welcome := protocol.WelcomeMsg{
		Type:            protocol.TypeWelcome,
		ProtocolVersion: protocol.Version,
		FactionID:       string(faction),
		SessionToken:    c.token,
		Params:          h.params,
	}
	b, _ := json.Marshal(welcome)
	_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
		h.release(faction, c)
		return "", nil
	}
	h.log.Printf("faction %s claimed by %s", faction, hello.Name)
	return faction, c
}

// release hands the abandoned faction to autoplay so the session keeps
// moving.
func (h *Hub) release(f world.FactionID, c *client) {
	h.mu.Lock()
	if h.clients[f] == c {
		delete(h.clients, f)
	}
	h.mu.Unlock()
	select {
	case h.signals <- world.ReqAutomate{Faction: f}:
	default:
	}
}

// Oracle returns the controller view of one faction.
func (h *Hub) Oracle(f world.FactionID) world.Oracle {
	return &remoteOracle{hub: h, faction: f}
}

type remoteOracle struct {
	hub     *Hub
	faction world.FactionID
}

// Propose sends the observation to the connected controller and waits for
// its ACT. A missing or silent controller yields a brace.
func (o *remoteOracle) Propose(ctx context.Context, obs protocol.ObsMsg) (world.Request, error) {
	o.hub.mu.Lock()
	c := o.hub.clients[o.faction]
	o.hub.mu.Unlock()
	if c == nil {
		return world.ReqWait{}, nil
	}

	b, err := json.Marshal(obs)
	if err != nil {
		return nil, err
	}
	select {
	case c.out <- b:
	default:
		return world.ReqWait{}, nil
	}

	timer := time.NewTimer(proposeWait)
	defer timer.Stop()
	select {
	case act := <-c.acts:
		if act.ActorID != obs.ActorID {
			return nil, fmt.Errorf("ACT for actor %s, expected %s", act.ActorID, obs.ActorID)
		}
		return world.DecodeRequest(act.Request)
	case <-c.done:
		return world.ReqWait{}, nil
	case <-timer.C:
		return world.ReqWait{}, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Event implements world.EventSink. Slow consumers lose entries rather
// than stalling the loop.
func (h *Hub) Event(f world.FactionID, ev protocol.EventMsg) { h.push(f, ev) }

func (h *Hub) Failure(f world.FactionID, fm protocol.FailureMsg) { h.push(f, fm) }

func (h *Hub) push(f world.FactionID, v any) {
	h.mu.Lock()
	c := h.clients[f]
	h.mu.Unlock()
	if c == nil {
		return
	}
	b, err := json.Marshal(v)
	if err != nil {
		return
	}
	select {
	case c.out <- b:
	default:
	}
}

// Bye notifies every connected controller that the session ended.
func (h *Hub) Bye(reason string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, c := range h.clients {
		b, _ := json.Marshal(protocol.ByeMsg{
			Type:            protocol.TypeBye,
			ProtocolVersion: protocol.Version,
			Reason:          reason,
		})
		select {
		case c.out <- b:
		default:
		}
	}
}
