// Package database provides the data access layer for the application.
//
// # Architecture
//
// The database layer is organized into domain-specific sub-packages:
//
//	database/
//	├── database.go      # Connection setup (SQLite or PostgreSQL), migrations
//	├── stories/         # Story aggregate: catalog queries, chapters, tag links, covers, cascade delete
//	├── tags/            # Tag lookup and get-or-create by normalized name
//	├── ratings/         # Rating upsert and removal
//	├── library/         # Saved-story bookmarks
//	└── users/           # User lookup and biography
//
// # Using Sub-packages
//
// Each sub-package provides a Repository type with domain-specific operations:
//
//	db, err := database.Open(database.Options{Driver: "sqlite", Path: "./scribe.db"})
//
//	storiesRepo := stories.NewRepository(db.DB)
//	ratingsRepo := ratings.NewRepository(db.DB)
//
//	story, err := storiesRepo.GetStoryByID(ctx, 42)
//	err = ratingsRepo.UpsertRating(ctx, userID, story.ID, 5)
//
// # Interface Implementations
//
//   - stories.Repository: implements catalog.Store and http.StoryStore
//   - tags.Repository: implements http.TagStore
//   - ratings.Repository: implements http.RatingStore
//   - library.Repository: implements http.LibraryStore
//   - users.Repository: implements http.UserStore
//
// # Consistency
//
// Multi-row writes (story create/edit, chapter replacement, cascade delete)
// run inside a single transaction. Uniqueness races (first rating by a user,
// concurrent creation of the same tag) are resolved by the unique indexes via
// ON CONFLICT clauses rather than application locking.
//
// # Adding a New Domain
//
//  1. Create a new sub-package: internal/database/<domain>/
//  2. Define a Repository struct with a *gorm.DB field
//  3. Add NewRepository(db *gorm.DB) constructor
//  4. Implement the required interface
//  5. Add compile-time interface check: var _ SomeInterface = (*Repository)(nil)
package database
