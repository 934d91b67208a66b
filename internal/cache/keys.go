package cache

import (
	"fmt"

	"github.com/google/uuid"
)

// Cache keys are a composite of resource kind and identifier.
const roomListKey = "room-list"

func RoomListKey() string { return roomListKey }

func RoomKey(roomID uuid.UUID) string { return fmt.Sprintf("room:%s", roomID) }

func RoomMessagesKey(roomID uuid.UUID) string { return fmt.Sprintf("room:%s:messages", roomID) }
