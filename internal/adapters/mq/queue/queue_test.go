package queue_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/edupulse/edupulse/internal/adapters/mq/queue"
	"github.com/edupulse/edupulse/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func progressRecord(id string) queue.Record {
	return queue.Record{Progress: &model.ProgressEvent{EventID: id, LearnerID: "l1"}}
}

func TestInMemoryQueue(t *testing.T) {
	ctx := context.Background()

	Convey("Given a queue with a small capacity", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(2))

		Convey("When enqueueing within capacity", func() {
			So(q.Enqueue(ctx, progressRecord("e1")), ShouldBeTrue)
			So(q.Enqueue(ctx, progressRecord("e2")), ShouldBeTrue)

			Convey("Then the length reflects the buffered records", func() {
				So(q.Len(ctx), ShouldEqual, 2)
			})

			Convey("And a further enqueue reports backpressure", func() {
				So(q.Enqueue(ctx, progressRecord("e3")), ShouldBeFalse)
			})
		})

		Convey("When dequeueing", func() {
			So(q.Enqueue(ctx, progressRecord("e1")), ShouldBeTrue)
			ch := q.Dequeue(ctx)

			Convey("Then records arrive in order", func() {
				select {
				case rec := <-ch:
					So(rec.Progress, ShouldNotBeNil)
					So(rec.Progress.EventID, ShouldEqual, "e1")
				case <-time.After(time.Second):
					So("timeout", ShouldBeEmpty)
				}
			})
		})

		Convey("When the queue is closed", func() {
			So(q.Close(), ShouldBeNil)

			Convey("Then enqueue refuses new records", func() {
				So(q.Enqueue(ctx, progressRecord("e9")), ShouldBeFalse)
			})

			Convey("And closing again is a no-op", func() {
				So(q.Close(), ShouldBeNil)
			})

			Convey("And the dequeue channel drains then closes", func() {
				ch := q.Dequeue(ctx)
				select {
				case _, ok := <-ch:
					So(ok, ShouldBeFalse)
				case <-time.After(time.Second):
					So("timeout", ShouldBeEmpty)
				}
			})
		})
	})

	Convey("Given concurrent producers", t, func() {
		q := queue.NewInMemoryQueue(queue.WithCapacity(1000))
		done := make(chan struct{})

		for g := 0; g < 4; g++ {
			go func(g int) {
				defer func() { done <- struct{}{} }()
				for i := 0; i < 50; i++ {
					q.Enqueue(ctx, progressRecord(fmt.Sprintf("g%d-%d", g, i)))
				}
			}(g)
		}
		for g := 0; g < 4; g++ {
			<-done
		}

		Convey("Then every accepted record is buffered", func() {
			So(q.Len(ctx), ShouldEqual, 200)
		})
	})
}
