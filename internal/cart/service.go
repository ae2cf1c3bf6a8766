package cart

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/aws/smithy-go"
	"go.uber.org/zap"
)

// State of one session's cart lifecycle.
type State int

const (
	StateUninitialized State = iota
	StateLoading
	StateReady
)

// Mode says whether the remote mirror is in play for this session.
// Local-only is one-way: once a permission failure latches it, the session
// never writes remotely again.
type Mode int

const (
	ModeRemoteSynced Mode = iota
	ModeLocalOnly
)

func (m Mode) String() string {
	if m == ModeLocalOnly {
		return "local-only"
	}
	return "remote-synced"
}

// Owner identifies who a cart belongs to: an authenticated user or an
// anonymous browser session.
type Owner struct {
	UserID    string
	SessionID string
}

func (o Owner) Authenticated() bool { return o.UserID != "" }

func (o Owner) key() string {
	if o.UserID != "" {
		return "u:" + o.UserID
	}
	return "s:" + o.SessionID
}

type session struct {
	state  State
	mode   Mode
	items  Items
	timer  *time.Timer
	warned bool
}

// Service owns the active cart for each session and keeps it durable:
// every mutation is written to the local store immediately and mirrored to
// DynamoDB after a quiescence delay, for authenticated owners only.
type Service struct {
	local    LocalStore
	remote   *MirrorStore
	log      *zap.Logger
	debounce time.Duration

	mu       sync.Mutex
	sessions map[string]*session
}

// NewService wires the cart service. debounce <= 0 falls back to 500ms.
func NewService(local LocalStore, remote *MirrorStore, log *zap.Logger, debounce time.Duration) *Service {
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	return &Service{
		local:    local,
		remote:   remote,
		log:      log,
		debounce: debounce,
		sessions: map[string]*session{},
	}
}

// Get returns the current items and sync mode for an owner, loading them on
// first touch. Loading never fails: remote errors degrade to local-only.
func (s *Service) Get(ctx context.Context, o Owner) (Items, Mode) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.ensureLoaded(ctx, o)
	return sess.items.clone(), sess.mode
}

// Mutate applies fn to the owner's items, persists locally right away and
// schedules the debounced remote write. The updated items are returned.
func (s *Service) Mutate(ctx context.Context, o Owner, fn func(Items) Items) Items {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.ensureLoaded(ctx, o)
	sess.items = fn(sess.items)
	s.persist(ctx, o, sess)
	return sess.items.clone()
}

// Clear empties the cart and removes both stored copies immediately,
// bypassing the debounce. Used after checkout and for explicit clears.
func (s *Service) Clear(ctx context.Context, o Owner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess := s.ensureLoaded(ctx, o)
	sess.items = Items{}
	if sess.timer != nil {
		sess.timer.Stop()
		sess.timer = nil
	}
	if err := s.local.Delete(ctx, o.key()); err != nil {
		s.log.Warn("local cart delete failed", zap.Error(err))
	}
	if o.Authenticated() && sess.mode == ModeRemoteSynced {
		if err := s.remote.Delete(ctx, o.UserID); err != nil {
			s.handleRemoteError(sess, err)
		}
	}
}

// MergeOnLogin folds a pre-authentication session cart into the user's cart,
// exactly once: the session copy is deleted after a successful merge so a
// second login cannot re-apply it. The merged cart is written through
// immediately (local and remote).
func (s *Service) MergeOnLogin(ctx context.Context, sessionID, userID string) Items {
	anon := Owner{SessionID: sessionID}
	user := Owner{UserID: userID}

	s.mu.Lock()
	defer s.mu.Unlock()

	queued, found, err := s.local.Load(ctx, anon.key())
	if err != nil {
		s.log.Warn("loading session cart for merge failed", zap.Error(err))
	}

	sess := s.ensureLoaded(ctx, user)
	if !found || len(queued) == 0 {
		return sess.items.clone()
	}

	sess.items = sess.items.Merge(queued)
	if err := s.local.Delete(ctx, anon.key()); err != nil {
		s.log.Warn("session cart delete after merge failed", zap.Error(err))
	}
	if s.sessions[anon.key()] != nil {
		delete(s.sessions, anon.key())
	}

	if err := s.local.Save(ctx, user.key(), sess.items); err != nil {
		s.log.Warn("local cart save failed", zap.Error(err))
	}
	if sess.mode == ModeRemoteSynced {
		if err := s.remote.Save(ctx, userID, sess.items); err != nil {
			s.handleRemoteError(sess, err)
		}
	}
	return sess.items.clone()
}

// Flush forces any pending debounced remote write for the owner. Tests and
// graceful shutdown use it; normal traffic relies on the timer.
func (s *Service) Flush(ctx context.Context, o Owner) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[o.key()]
	if !ok || sess.timer == nil {
		return
	}
	sess.timer.Stop()
	sess.timer = nil
	s.saveRemoteLocked(ctx, o, sess)
}

// ensureLoaded runs the load precedence for a first touch. Caller holds s.mu.
func (s *Service) ensureLoaded(ctx context.Context, o Owner) *session {
	key := o.key()
	if sess, ok := s.sessions[key]; ok && sess.state == StateReady {
		return sess
	}
	sess := &session{state: StateLoading, mode: ModeRemoteSynced}
	s.sessions[key] = sess

	if !o.Authenticated() {
		// anonymous sessions never touch the mirror
		sess.mode = ModeLocalOnly
		if items, found, err := s.local.Load(ctx, key); err == nil && found {
			sess.items = items
		} else {
			sess.items = Items{}
		}
		sess.state = StateReady
		return sess
	}

	// 1) remote wins when it exists and is non-empty
	remoteItems, found, err := s.remote.Load(ctx, o.UserID)
	if err != nil {
		s.handleRemoteError(sess, err)
	} else if found && len(remoteItems) > 0 {
		sess.items = remoteItems
		if err := s.local.Save(ctx, key, remoteItems); err != nil {
			s.log.Warn("local cart save failed", zap.Error(err))
		}
		sess.state = StateReady
		return sess
	}

	// 2) adopt the local copy and push it out; a failed push never loses it
	if localItems, foundLocal, lerr := s.local.Load(ctx, key); lerr == nil && foundLocal && len(localItems) > 0 {
		sess.items = localItems
		if sess.mode == ModeRemoteSynced {
			if perr := s.remote.Save(ctx, o.UserID, localItems); perr != nil {
				s.handleRemoteError(sess, perr)
			}
		}
		sess.state = StateReady
		return sess
	}

	// 3) start empty
	sess.items = Items{}
	sess.state = StateReady
	return sess
}

// persist writes the local copy unconditionally and arms the debounced
// remote write. Caller holds s.mu.
func (s *Service) persist(ctx context.Context, o Owner, sess *session) {
	if err := s.local.Save(ctx, o.key(), sess.items); err != nil {
		s.log.Warn("local cart save failed", zap.Error(err))
	}
	if !o.Authenticated() || sess.mode == ModeLocalOnly {
		return
	}
	if sess.timer != nil {
		sess.timer.Stop()
	}
	owner := o
	sess.timer = time.AfterFunc(s.debounce, func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		cur, ok := s.sessions[owner.key()]
		if !ok {
			return
		}
		cur.timer = nil
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		s.saveRemoteLocked(flushCtx, owner, cur)
	})
}

// saveRemoteLocked writes the current snapshot to the mirror. Caller holds s.mu.
func (s *Service) saveRemoteLocked(ctx context.Context, o Owner, sess *session) {
	if !o.Authenticated() || sess.mode == ModeLocalOnly {
		return
	}
	if err := s.remote.Save(ctx, o.UserID, sess.items); err != nil {
		s.handleRemoteError(sess, err)
	}
}

// handleRemoteError downgrades the session on permission failures. The latch
// is one-way and the warning is logged a single time per session; other
// errors just log and the next mutation retries.
func (s *Service) handleRemoteError(sess *session, err error) {
	if isAccessDenied(err) {
		sess.mode = ModeLocalOnly
		if sess.timer != nil {
			sess.timer.Stop()
			sess.timer = nil
		}
		if !sess.warned {
			sess.warned = true
			s.log.Warn("cart sync disabled, working offline", zap.Error(err))
		}
		return
	}
	s.log.Warn("remote cart write failed", zap.Error(err))
}

func isAccessDenied(err error) bool {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		return apiErr.ErrorCode() == "AccessDeniedException"
	}
	return false
}
