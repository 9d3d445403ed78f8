package repository_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/edupulse/edupulse/internal/adapters/repository"
	"github.com/edupulse/edupulse/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func intp(v int) *int { return &v }

func openTestStore(t *testing.T) *repository.SQLiteStore {
	t.Helper()
	store, err := repository.NewSQLiteStore(filepath.Join(t.TempDir(), "edupulse.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStoreProgress(t *testing.T) {
	ctx := context.Background()

	Convey("Given an empty store", t, func() {
		store := openTestStore(t)

		Convey("When progress events are recorded", func() {
			events := []model.ProgressEvent{
				{EventID: "e1", OwnerID: "t1", LearnerID: "l1", CourseID: "c1", ChapterID: "ch1", WatchedSeconds: 300, DurationSeconds: 600, OccurredAtMs: 2000},
				{EventID: "e2", OwnerID: "t1", LearnerID: "l2", CourseID: "c1", ChapterID: "ch1", WatchedSeconds: 150, DurationSeconds: 600, OccurredAtMs: 1000},
				{EventID: "e3", OwnerID: "t2", LearnerID: "l9", CourseID: "c9", ChapterID: "ch9", WatchedSeconds: 600, DurationSeconds: 600, OccurredAtMs: 1500},
			}
			for _, ev := range events {
				So(store.RecordProgress(ctx, ev), ShouldBeNil)
			}

			Convey("Then owner reads return only that owner's events in time order", func() {
				got, err := store.EventsByOwner(ctx, "t1", 0, 5000)
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 2)
				So(got[0].EventID, ShouldEqual, "e2")
				So(got[1].EventID, ShouldEqual, "e1")
			})

			Convey("And the window bounds are inclusive", func() {
				got, err := store.EventsByOwner(ctx, "t1", 1000, 2000)
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 2)

				got, err = store.EventsByOwner(ctx, "t1", 1001, 1999)
				So(err, ShouldBeNil)
				So(got, ShouldBeEmpty)
			})

			Convey("And learner reads scope by learner id", func() {
				got, err := store.EventsByLearner(ctx, "l2", 0, 5000)
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 1)
				So(got[0].EventID, ShouldEqual, "e2")
			})

			Convey("And replaying a known event id is a silent no-op", func() {
				replay := events[0]
				replay.WatchedSeconds = 999
				So(store.RecordProgress(ctx, replay), ShouldBeNil)

				got, err := store.EventsByOwner(ctx, "t1", 0, 5000)
				So(err, ShouldBeNil)
				So(len(got), ShouldEqual, 2)
				So(got[1].WatchedSeconds, ShouldEqual, 300)
			})
		})
	})
}

func TestSQLiteStoreAttempts(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store with quiz attempts", t, func() {
		store := openTestStore(t)

		attempts := []model.QuizAttempt{
			{AttemptID: "a1", OwnerID: "t1", QuizID: "q1", LearnerID: "l1", Answers: []*int{intp(0), nil, intp(2)}, Score: 2, MaxScore: 3, CreatedAtMs: 100},
			{AttemptID: "a2", OwnerID: "t1", QuizID: "q1", LearnerID: "l2", Answers: []*int{intp(1)}, Score: 0, MaxScore: 3, CreatedAtMs: 50},
		}
		for _, at := range attempts {
			So(store.RecordAttempt(ctx, at), ShouldBeNil)
		}

		Convey("Then attempts round-trip with nil answer slots intact", func() {
			got, err := store.AttemptsByOwner(ctx, "t1", 0, 1000)
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 2)
			So(got[0].AttemptID, ShouldEqual, "a2")

			a1 := got[1]
			So(len(a1.Answers), ShouldEqual, 3)
			So(*a1.Answers[0], ShouldEqual, 0)
			So(a1.Answers[1], ShouldBeNil)
			So(*a1.Answers[2], ShouldEqual, 2)
			So(a1.Score, ShouldEqual, 2)
			So(a1.MaxScore, ShouldEqual, 3)
		})

		Convey("And learner reads scope by learner id", func() {
			got, err := store.AttemptsByLearner(ctx, "l2", 0, 1000)
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 1)
			So(got[0].AttemptID, ShouldEqual, "a2")
		})

		Convey("And replays keep the first write", func() {
			replay := attempts[0]
			replay.Score = 3
			So(store.RecordAttempt(ctx, replay), ShouldBeNil)

			got, err := store.AttemptsByLearner(ctx, "l1", 0, 1000)
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 1)
			So(got[0].Score, ShouldEqual, 2)
		})
	})
}

func TestSQLiteStoreBanks(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store with quiz banks", t, func() {
		store := openTestStore(t)

		bank := model.QuizBank{
			QuizID:  "q1",
			OwnerID: "t1",
			Questions: []model.QuestionDef{
				{QuestionID: "q1-0", Prompt: "2+2?", Options: []string{"3", "4"}, CorrectOptions: []int{1}},
				{QuestionID: "q1-1", Prompt: "pick evens", Options: []string{"1", "2", "4"}, CorrectOptions: []int{1, 2}},
			},
		}
		So(store.UpsertBank(ctx, bank), ShouldBeNil)
		So(store.UpsertBank(ctx, model.QuizBank{QuizID: "q2", OwnerID: "t2", Questions: nil}), ShouldBeNil)

		Convey("Then owner reads return the owner's banks only", func() {
			got, err := store.QuestionsByOwner(ctx, "t1")
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 1)
			So(len(got["q1"]), ShouldEqual, 2)
			So(got["q1"][1].CorrectOptions, ShouldResemble, []int{1, 2})
		})

		Convey("And lookups by quiz id skip unknown ids", func() {
			got, err := store.QuestionsByQuizIDs(ctx, []string{"q1", "missing"})
			So(err, ShouldBeNil)
			So(len(got), ShouldEqual, 1)
			So(len(got["q1"]), ShouldEqual, 2)
		})

		Convey("And an empty id list returns an empty map", func() {
			got, err := store.QuestionsByQuizIDs(ctx, nil)
			So(err, ShouldBeNil)
			So(got, ShouldBeEmpty)
		})

		Convey("And an upsert replaces the question list", func() {
			bank.Questions = bank.Questions[:1]
			So(store.UpsertBank(ctx, bank), ShouldBeNil)

			got, err := store.QuestionsByOwner(ctx, "t1")
			So(err, ShouldBeNil)
			So(len(got["q1"]), ShouldEqual, 1)
		})
	})
}

func TestSQLiteStoreCounts(t *testing.T) {
	ctx := context.Background()

	Convey("Given a store with mixed records", t, func() {
		store := openTestStore(t)

		So(store.RecordProgress(ctx, model.ProgressEvent{EventID: "e1", OwnerID: "t1", LearnerID: "l1"}), ShouldBeNil)
		So(store.RecordProgress(ctx, model.ProgressEvent{EventID: "e2", OwnerID: "t1", LearnerID: "l1"}), ShouldBeNil)
		So(store.RecordAttempt(ctx, model.QuizAttempt{AttemptID: "a1", OwnerID: "t1", QuizID: "q1", LearnerID: "l1"}), ShouldBeNil)
		So(store.UpsertBank(ctx, model.QuizBank{QuizID: "q1", OwnerID: "t1"}), ShouldBeNil)

		Convey("Then total counts reflect each table", func() {
			counts, err := store.TotalCounts(ctx)
			So(err, ShouldBeNil)
			So(counts.ProgressEvents, ShouldEqual, 2)
			So(counts.QuizAttempts, ShouldEqual, 1)
			So(counts.QuizBanks, ShouldEqual, 1)
		})
	})
}
