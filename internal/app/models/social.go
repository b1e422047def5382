package models

import "time"

// FriendRequest represents a pending friend request between two students
type FriendRequest struct {
	ID        int64     `json:"id" db:"id"`
	FromID    int64     `json:"fromId" db:"from_id"`
	ToID      int64     `json:"toId" db:"to_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Friendship represents a confirmed friendship. Rows are stored once
// per pair with StudentA < StudentB.
type Friendship struct {
	StudentA  int64     `json:"studentA" db:"student_a"`
	StudentB  int64     `json:"studentB" db:"student_b"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Block represents a directional block: Blocker no longer sees or
// interacts with Blocked.
type Block struct {
	BlockerID int64     `json:"blockerId" db:"blocker_id"`
	BlockedID int64     `json:"blockedId" db:"blocked_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

// Bookmark marks a post saved by a student
type Bookmark struct {
	StudentID int64     `json:"studentId" db:"student_id"`
	PostID    int64     `json:"postId" db:"post_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}
