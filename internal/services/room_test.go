package services

import (
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/emberchat/emberchat-backend/internal/cache"
	"github.com/emberchat/emberchat-backend/internal/domain"
	pkgerrors "github.com/emberchat/emberchat-backend/internal/pkg/errors"
	"github.com/emberchat/emberchat-backend/internal/platform/logger"
)

type roomFixture struct {
	svc   RoomService
	cache *memCache
	rooms *fakeRooms
	msgs  *fakeMessages
	user  *domain.User
}

func newRoomFixture(t *testing.T, rooms ...*domain.Room) *roomFixture {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger: %v", err)
	}
	mc := newMemCache()
	user := &domain.User{ID: uuid.New(), Username: "alice"}
	fr := newFakeRooms(rooms...)
	fm := &fakeMessages{}
	return &roomFixture{
		svc:   NewRoomService(cache.NewAside(mc, log), fr, fm, newFakeUsers(user), log),
		cache: mc,
		rooms: fr,
		msgs:  fm,
		user:  user,
	}
}

func TestCreateRoom_InvalidatesRoomList(t *testing.T) {
	fx := newRoomFixture(t)
	fx.cache.entries[cache.RoomListKey()] = []byte(`{}`)

	view, err := fx.svc.CreateRoom(ctxOf(t), "general", "the general room", fx.user.ID)
	if err != nil {
		t.Fatalf("CreateRoom: %v", err)
	}
	if view.Name != "general" || view.MessageCount != 0 {
		t.Fatalf("view=%+v", view)
	}
	if _, ok := fx.cache.entries[cache.RoomListKey()]; ok {
		t.Fatalf("room list still cached")
	}
}

func TestCreateRoom_RejectsDuplicateName(t *testing.T) {
	existing := &domain.Room{ID: uuid.New(), Name: "general", CreatedBy: uuid.New(), CreatedAt: time.Now().UTC()}
	fx := newRoomFixture(t, existing)

	_, err := fx.svc.CreateRoom(ctxOf(t), "general", "", fx.user.ID)
	if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("err=%v", err)
	}
}

func TestCreateRoom_RejectsBlankName(t *testing.T) {
	fx := newRoomFixture(t)
	_, err := fx.svc.CreateRoom(ctxOf(t), "   ", "", fx.user.ID)
	if !errors.Is(err, pkgerrors.ErrInvalidArgument) {
		t.Fatalf("err=%v", err)
	}
}

func TestGetRoom_CachesDetail(t *testing.T) {
	room := &domain.Room{ID: uuid.New(), Name: "general", CreatedBy: uuid.New(), CreatedAt: time.Now().UTC()}
	fx := newRoomFixture(t, room)
	userID := fx.user.ID
	if _, err := fx.msgs.Create(ctxOf(t), &domain.Message{RoomID: room.ID, UserID: &userID, Content: "hi", MessageType: domain.MessageTypeUser}); err != nil {
		t.Fatalf("seed: %v", err)
	}

	detail, err := fx.svc.GetRoom(ctxOf(t), room.ID)
	if err != nil {
		t.Fatalf("GetRoom: %v", err)
	}
	if detail.Room.ID != room.ID || detail.Room.MessageCount != 1 {
		t.Fatalf("detail=%+v", detail.Room)
	}
	if len(detail.Messages) != 1 || detail.Messages[0].Username != "alice" {
		t.Fatalf("messages=%+v", detail.Messages)
	}
	if _, ok := fx.cache.entries[cache.RoomKey(room.ID)]; !ok {
		t.Fatalf("detail not cached")
	}

	// Cache hit survives a store wipe.
	fx.msgs.msgs = nil
	delete(fx.rooms.rooms, room.ID)
	detail, err = fx.svc.GetRoom(ctxOf(t), room.ID)
	if err != nil {
		t.Fatalf("GetRoom: %v", err)
	}
	if detail.Room.MessageCount != 1 {
		t.Fatalf("detail=%+v", detail.Room)
	}
}

func TestGetRoom_NotFoundNotCached(t *testing.T) {
	fx := newRoomFixture(t)
	missing := uuid.New()

	_, err := fx.svc.GetRoom(ctxOf(t), missing)
	if !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
	if _, ok := fx.cache.entries[cache.RoomKey(missing)]; ok {
		t.Fatalf("miss must not be cached")
	}
}

func TestListRooms_CachesList(t *testing.T) {
	room := &domain.Room{ID: uuid.New(), Name: "general", CreatedBy: uuid.New(), CreatedAt: time.Now().UTC()}
	fx := newRoomFixture(t, room)

	list, err := fx.svc.ListRooms(ctxOf(t))
	if err != nil {
		t.Fatalf("ListRooms: %v", err)
	}
	if list.Count != 1 || len(list.Rooms) != 1 {
		t.Fatalf("list=%+v", list)
	}
	if _, ok := fx.cache.entries[cache.RoomListKey()]; !ok {
		t.Fatalf("list not cached")
	}
}

func TestDeleteRoom_InvalidatesAllRoomKeys(t *testing.T) {
	room := &domain.Room{ID: uuid.New(), Name: "general", CreatedBy: uuid.New(), CreatedAt: time.Now().UTC()}
	fx := newRoomFixture(t, room)
	fx.cache.entries[cache.RoomListKey()] = []byte(`{}`)
	fx.cache.entries[cache.RoomKey(room.ID)] = []byte(`{}`)
	fx.cache.entries[cache.RoomMessagesKey(room.ID)] = []byte(`[]`)

	if err := fx.svc.DeleteRoom(ctxOf(t), room.ID); err != nil {
		t.Fatalf("DeleteRoom: %v", err)
	}
	for _, key := range []string{cache.RoomListKey(), cache.RoomKey(room.ID), cache.RoomMessagesKey(room.ID)} {
		if _, ok := fx.cache.entries[key]; ok {
			t.Fatalf("key %q still cached", key)
		}
	}
}

func TestDeleteRoom_NotFound(t *testing.T) {
	fx := newRoomFixture(t)
	if err := fx.svc.DeleteRoom(ctxOf(t), uuid.New()); !errors.Is(err, pkgerrors.ErrNotFound) {
		t.Fatalf("err=%v", err)
	}
}
