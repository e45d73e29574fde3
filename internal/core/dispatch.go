package core

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/framechat/internal/frame"
	"github.com/vovakirdan/framechat/internal/proto"
)

// Engine applies decoded commands to the registry and queues the
// resulting notices. It is driven by the hub goroutine only.
type Engine struct {
	reg   *Registry
	queue *Queue
	codec frame.Codec
	now   func() time.Time
	log   *zerolog.Logger
}

// NewEngine builds an engine over reg and queue.
func NewEngine(reg *Registry, queue *Queue, codec frame.Codec, now func() time.Time, logger *zerolog.Logger) *Engine {
	if now == nil {
		now = time.Now
	}
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	return &Engine{reg: reg, queue: queue, codec: codec, now: now, log: logger}
}

// Accept registers a new connection and tells everyone else about it.
func (e *Engine) Accept(id ConnID, addr string, closeFn func()) {
	e.reg.Bind(id, addr, e.now(), closeFn)
	e.log.Info().Str("conn_id", string(id)).Str("remote", addr).Msg("accepting a client")
	e.broadcast(noticeJoined, id)
}

// Handle decodes one frame payload from id and dispatches it.
func (e *Engine) Handle(id ConnID, payload []byte) {
	s, ok := e.reg.Get(id)
	if !ok {
		e.log.Debug().Str("conn_id", string(id)).Msg("frame from unknown connection dropped")
		return
	}
	if s.Closing() {
		e.log.Debug().Str("conn_id", string(id)).Msg("frame from closing connection dropped")
		return
	}

	req, err := proto.Decode(payload)
	if err != nil {
		e.log.Debug().Err(err).Str("conn_id", string(id)).Msg("undecodable command")
		e.reject(s, coreError(ErrCodeInvalidCommand, noticeInvalidCommand))
		return
	}

	switch req.Kind {
	case proto.KindQuit:
		e.Disconnect(id)
		return
	case proto.KindViewManagers:
		e.viewManagers(s)
		return
	}

	if !s.User.Named() {
		if err := e.bindName(s, req.Sender); err != nil {
			return
		}
	}

	switch req.Kind {
	case proto.KindChat:
		e.chat(s, req.Text)
	case proto.KindAppointManager:
		e.appointManager(s, req.Target)
	case proto.KindRemove:
		e.remove(s, req.Target)
	case proto.KindSilence:
		e.silence(s, req.Target)
	case proto.KindPrivate:
		e.private(s, req.Target, req.Text)
	}
}

// Disconnect evicts id and announces the departure to the remaining users.
// It serves quit, transport close and framing failures alike.
func (e *Engine) Disconnect(id ConnID) {
	s, ok := e.reg.Get(id)
	if !ok {
		return
	}
	line := noticeSomeoneLeft
	if s.User.Named() {
		line = displayName(&s.User) + " left the chat"
	}
	e.reg.Remove(id)
	e.log.Info().Str("conn_id", string(id)).Msg(line)
	e.broadcast(line)
}

// Evict removes id without a departure notice. It runs once the final
// notice of a removed or refused connection has been handed off.
func (e *Engine) Evict(id ConnID) {
	if s, ok := e.reg.Remove(id); ok {
		e.log.Info().Str("conn_id", string(id)).Str("user", s.User.Name).Msg("connection evicted")
	}
}

// EnsureManager promotes the earliest named connection when the manager set
// is empty. It reports whether a promotion happened.
func (e *Engine) EnsureManager() bool {
	if e.reg.ManagerCount() > 0 {
		return false
	}
	id, ok := e.reg.FirstNamed()
	if !ok || !e.reg.Promote(id) {
		return false
	}
	s, _ := e.reg.Get(id)
	e.send(noticePromotedYou, []ConnID{id}, false)
	e.broadcast(displayName(&s.User)+" has been appointed as a manager.", id)
	e.log.Info().Str("conn_id", string(id)).Str("user", s.User.Name).Msg("automatically appointed as a manager")
	return true
}

func (e *Engine) bindName(s *Session, name string) error {
	if err := proto.ValidateName(name); err != nil {
		e.refuse(s, coreError(ErrCodeInvalidName, invalidName(name, err)))
		return err
	}
	if err := e.reg.SetName(s.ID, name); err != nil {
		if errors.Is(err, ErrNameTaken) {
			e.refuse(s, coreError(ErrCodeNameTaken, nameTaken(name)))
		}
		return err
	}
	e.log.Info().Str("conn_id", string(s.ID)).Str("user", name).Msg("name bound")
	return nil
}

func (e *Engine) chat(s *Session, text string) {
	if e.silenced(s) {
		return
	}
	if text == "" {
		e.reject(s, coreError(ErrCodeInvalidCommand, noticeInvalidCommand))
		return
	}
	line := displayName(&s.User) + ": " + text
	e.send(selfName+": "+text, []ConnID{s.ID}, false)
	e.broadcast(line, s.ID)
	e.log.Info().Str("conn_id", string(s.ID)).Msg(line)
}

func (e *Engine) private(s *Session, targetName, text string) {
	if e.silenced(s) {
		return
	}
	t, cerr := e.resolveTarget(s, targetName)
	if cerr != nil {
		e.reject(s, cerr)
		return
	}
	e.send(privateMessagePrefix+displayName(&s.User)+": "+text, []ConnID{t.ID}, false)
	e.send("You (private message to "+displayName(&t.User)+"): "+text, []ConnID{s.ID}, false)
	e.log.Info().Str("conn_id", string(s.ID)).
		Msg(displayName(&s.User) + " sent a private message to " + displayName(&t.User) + ".")
}

func (e *Engine) appointManager(s *Session, targetName string) {
	t, cerr := e.managedTarget(s, targetName)
	if cerr != nil {
		e.reject(s, cerr)
		return
	}
	if t.User.IsManager() {
		e.reject(s, coreError(ErrCodeAlreadyManager, displayName(&t.User)+" is already a manager."))
		return
	}
	e.reg.Promote(t.ID)
	e.notifyThreeWay(s, t,
		displayName(&s.User)+" appointed you as a manager!",
		"You appointed "+displayName(&t.User)+" as a manager.",
		displayName(&s.User)+" appointed "+displayName(&t.User)+" as a manager.",
		false)
}

func (e *Engine) remove(s *Session, targetName string) {
	t, cerr := e.managedTarget(s, targetName)
	if cerr != nil {
		e.reject(s, cerr)
		return
	}
	e.notifyThreeWay(s, t,
		displayName(&s.User)+" removed you from the chat.",
		"You removed "+displayName(&t.User)+" from the chat.",
		displayName(&s.User)+" removed "+displayName(&t.User)+" from the chat.",
		true)
}

func (e *Engine) silence(s *Session, targetName string) {
	t, cerr := e.managedTarget(s, targetName)
	if cerr != nil {
		e.reject(s, cerr)
		return
	}
	if t.User.Silenced {
		e.reject(s, coreError(ErrCodeAlreadySilenced, displayName(&t.User)+" is already silenced."))
		return
	}
	e.reg.Silence(t.ID)
	e.notifyThreeWay(s, t,
		displayName(&s.User)+" silenced you. You can't send messages any more.",
		"You silenced "+displayName(&t.User)+".",
		displayName(&s.User)+" silenced "+displayName(&t.User)+".",
		false)
}

func (e *Engine) viewManagers(s *Session) {
	managers := e.reg.Managers()
	if len(managers) == 0 {
		e.send(noticeNoManagers, []ConnID{s.ID}, false)
		return
	}
	e.send(managerList(managers, s.User.Name, e.codec.Max()-len(timestampLayout)-1), []ConnID{s.ID}, false)
}

// notifyThreeWay queues the target notice, the sender confirmation and the
// broadcast to everyone else as separate messages.
func (e *Engine) notifyThreeWay(s, t *Session, toTarget, toSender, toOthers string, removeTarget bool) {
	e.send(toTarget, []ConnID{t.ID}, removeTarget)
	e.send(toSender, []ConnID{s.ID}, false)
	e.broadcast(toOthers, s.ID, t.ID)
	e.log.Info().Str("conn_id", string(s.ID)).Str("target_id", string(t.ID)).Msg(toOthers)
}

func (e *Engine) silenced(s *Session) bool {
	if !s.User.Silenced {
		return false
	}
	e.reject(s, coreError(ErrCodeSilenced, noticeSilenced))
	return true
}

// managedTarget applies the manager gate and then resolves the target.
func (e *Engine) managedTarget(s *Session, targetName string) (*Session, *CoreError) {
	if !s.User.IsManager() {
		return nil, coreError(ErrCodePermissionDenied, noticeNotManager)
	}
	return e.resolveTarget(s, targetName)
}

func (e *Engine) resolveTarget(s *Session, targetName string) (*Session, *CoreError) {
	id, ok := e.reg.LookupByName(s.ID, targetName)
	if !ok {
		return nil, coreError(ErrCodeUnknownTarget, unknownTarget(targetName))
	}
	if id == s.ID {
		return nil, coreError(ErrCodeSelfTarget, noticeSelfTarget)
	}
	t, ok := e.reg.Get(id)
	if !ok || t.Closing() {
		return nil, coreError(ErrCodeUnknownTarget, unknownTarget(targetName))
	}
	return t, nil
}

func (e *Engine) reject(s *Session, cerr *CoreError) {
	e.send(cerr.Message, []ConnID{s.ID}, false)
	e.log.Info().Str("conn_id", string(s.ID)).Str("user", s.User.Name).Str("code", cerr.Code).Msg("command rejected")
}

// refuse sends the final notice to a connection that cannot stay. Its
// arrival was announced, so the room is told it left.
func (e *Engine) refuse(s *Session, cerr *CoreError) {
	e.send(cerr.Message, []ConnID{s.ID}, true)
	e.broadcast(noticeSomeoneLeft, s.ID)
	e.log.Info().Str("conn_id", string(s.ID)).Str("code", cerr.Code).Msg("connection refused")
}

func (e *Engine) broadcast(text string, exclude ...ConnID) {
	e.send(text, e.reg.Recipients(exclude...), false)
}

func (e *Engine) send(text string, recipients []ConnID, removeAfter bool) {
	if len(recipients) == 0 {
		return
	}
	payload, err := e.codec.Encode([]byte(e.now().Format(timestampLayout) + " " + text))
	if err != nil {
		e.log.Error().Err(err).Msg("notice does not fit in a frame")
		return
	}
	if removeAfter {
		for _, id := range recipients {
			e.reg.MarkClosing(id)
		}
	}
	e.queue.Push(payload, recipients, removeAfter)
}
