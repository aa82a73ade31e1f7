package inmemdb

import (
	"sync"
	"time"

	"github.com/etarip26/EduConnect/core/announcement"
	"github.com/etarip26/EduConnect/core/chat"
	"github.com/etarip26/EduConnect/core/demo"
	"github.com/etarip26/EduConnect/core/match"
	"github.com/etarip26/EduConnect/core/notification"
	"github.com/etarip26/EduConnect/core/profile"
	"github.com/etarip26/EduConnect/core/review"
	"github.com/etarip26/EduConnect/core/tuition"
	"github.com/etarip26/EduConnect/core/user"
)

// DB keeps every table in memory behind a single lock, so multi-table
// operations such as accepting an application are atomic.
type DB struct {
	mutex sync.RWMutex

	users         map[string]*user.User
	students      map[string]*profile.StudentProfile // by user ID
	teachers      map[string]*profile.TeacherProfile // by user ID
	posts         map[string]*tuition.Post
	applications  map[string]*tuition.Application
	matches       map[string]*match.Match
	demos         map[string]*demo.Session
	notifications map[string]*notification.Notification
	rooms         map[string]*chat.Room
	messages      map[string]*chat.Message
	reviews       map[string]*review.Review
	announcements map[string]*announcement.Announcement
}

func Open() *DB {
	return &DB{
		users:         make(map[string]*user.User),
		students:      make(map[string]*profile.StudentProfile),
		teachers:      make(map[string]*profile.TeacherProfile),
		posts:         make(map[string]*tuition.Post),
		applications:  make(map[string]*tuition.Application),
		matches:       make(map[string]*match.Match),
		demos:         make(map[string]*demo.Session),
		notifications: make(map[string]*notification.Notification),
		rooms:         make(map[string]*chat.Room),
		messages:      make(map[string]*chat.Message),
		reviews:       make(map[string]*review.Review),
		announcements: make(map[string]*announcement.Announcement),
	}
}

// Close is a no-op, kept for parity with the SQL database.
func (db *DB) Close() error { return nil }

// deleteOwnedBy removes every row referencing the user, like the SQL ON DELETE CASCADE.
// The caller holds the write lock.
func (db *DB) deleteOwnedBy(userID string) {
	delete(db.students, userID)
	delete(db.teachers, userID)
	for id, p := range db.posts {
		if p.StudentID == userID {
			delete(db.posts, id)
		}
	}
	for id, a := range db.applications {
		if _, ok := db.posts[a.PostID]; !ok || a.TeacherID == userID {
			delete(db.applications, id)
		}
	}
	for id, m := range db.matches {
		if _, ok := db.applications[m.ApplicationID]; !ok || m.HasParty(userID) {
			delete(db.matches, id)
		}
	}
	for id, s := range db.demos {
		if _, ok := db.matches[s.MatchID]; !ok || s.HasParty(userID) {
			delete(db.demos, id)
		}
	}
	for id, r := range db.rooms {
		if _, ok := db.matches[r.MatchID]; !ok || r.HasMember(userID) {
			delete(db.rooms, id)
		}
	}
	for id, m := range db.messages {
		if _, ok := db.rooms[m.RoomID]; !ok || m.SenderID == userID {
			delete(db.messages, id)
		}
	}
	for id, n := range db.notifications {
		if n.UserID == userID {
			delete(db.notifications, id)
		}
	}
	for id, r := range db.reviews {
		if r.TeacherID == userID || r.StudentID == userID {
			delete(db.reviews, id)
		}
	}
	for _, a := range db.announcements {
		if a.CreatedBy == userID {
			a.CreatedBy = ""
		}
	}
}

func copyStrings(ss []string) []string {
	if ss == nil {
		return []string{}
	}
	return append([]string(nil), ss...)
}

func nowUTC() time.Time { return time.Now().UTC() }
