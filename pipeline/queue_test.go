package pipeline_test

import (
	"fmt"
	"time"

	"github.com/corelane/strpipe/pipeline"
	gc "gopkg.in/check.v1"
)

var _ = gc.Suite(new(QueueTestSuite))

type QueueTestSuite struct{}

func (s *QueueTestSuite) TestBadCapacity(c *gc.C) {
	_, err := pipeline.NewQueue(0)
	c.Assert(err, gc.Equals, pipeline.ErrQueueBadCapacity)
}

func (s *QueueTestSuite) TestFIFOOrdering(c *gc.C) {
	q, err := pipeline.NewQueue(4)
	c.Assert(err, gc.IsNil)

	for i := 0; i < 10; i++ {
		c.Assert(q.Put(pipeline.NewItem(fmt.Sprint(i))), gc.IsNil)
		got, err := q.Get()
		c.Assert(err, gc.IsNil)
		c.Assert(got.String(), gc.Equals, fmt.Sprint(i))
	}
}

func (s *QueueTestSuite) TestBoundedOccupancy(c *gc.C) {
	const capacity = 2
	q, err := pipeline.NewQueue(capacity)
	c.Assert(err, gc.IsNil)

	c.Assert(q.Put(pipeline.NewItem("a")), gc.IsNil)
	c.Assert(q.Put(pipeline.NewItem("b")), gc.IsNil)
	c.Assert(q.Len(), gc.Equals, capacity)

	putDone := make(chan error, 1)
	go func() { putDone <- q.Put(pipeline.NewItem("c")) }()

	select {
	case <-putDone:
		c.Fatal("Put should block while the queue is full")
	case <-time.After(50 * time.Millisecond):
	}

	_, err = q.Get()
	c.Assert(err, gc.IsNil)

	select {
	case err := <-putDone:
		c.Assert(err, gc.IsNil)
	case <-time.After(2 * time.Second):
		c.Fatal("Put should unblock once space is freed")
	}
	c.Assert(q.Len(), gc.Equals, capacity)
}

func (s *QueueTestSuite) TestGetBlocksUntilFinishedOrItem(c *gc.C) {
	q, err := pipeline.NewQueue(1)
	c.Assert(err, gc.IsNil)

	getDone := make(chan struct {
		item pipeline.Item
		err  error
	}, 1)
	go func() {
		item, err := q.Get()
		getDone <- struct {
			item pipeline.Item
			err  error
		}{item, err}
	}()

	select {
	case <-getDone:
		c.Fatal("Get should block on an empty, unfinished queue")
	case <-time.After(50 * time.Millisecond):
	}

	q.SignalFinished()

	select {
	case r := <-getDone:
		c.Assert(r.err, gc.Equals, pipeline.ErrEndOfStream)
	case <-time.After(2 * time.Second):
		c.Fatal("Get should observe end-of-stream once finished")
	}
}

func (s *QueueTestSuite) TestFinishedRejectsNewPuts(c *gc.C) {
	q, err := pipeline.NewQueue(4)
	c.Assert(err, gc.IsNil)

	q.SignalFinished()

	err = q.Put(pipeline.NewItem("late"))
	c.Assert(err, gc.Equals, pipeline.ErrQueueFinished)
}

func (s *QueueTestSuite) TestBufferedItemsStillDrainAfterFinished(c *gc.C) {
	q, err := pipeline.NewQueue(4)
	c.Assert(err, gc.IsNil)

	c.Assert(q.Put(pipeline.NewItem("x")), gc.IsNil)
	q.SignalFinished()

	item, err := q.Get()
	c.Assert(err, gc.IsNil)
	c.Assert(item.String(), gc.Equals, "x")

	_, err = q.Get()
	c.Assert(err, gc.Equals, pipeline.ErrEndOfStream)
}

func (s *QueueTestSuite) TestSignalFinishedIsIdempotent(c *gc.C) {
	q, err := pipeline.NewQueue(1)
	c.Assert(err, gc.IsNil)

	q.SignalFinished()
	q.SignalFinished()

	c.Assert(q.WaitFinished(), gc.IsNil)
	_, err = q.Get()
	c.Assert(err, gc.Equals, pipeline.ErrEndOfStream)
}

func (s *QueueTestSuite) TestWaitFinishedBlocksUntilDrained(c *gc.C) {
	q, err := pipeline.NewQueue(1)
	c.Assert(err, gc.IsNil)
	c.Assert(q.Put(pipeline.NewItem("x")), gc.IsNil)
	q.SignalFinished()

	waitDone := make(chan error, 1)
	go func() { waitDone <- q.WaitFinished() }()

	select {
	case <-waitDone:
		c.Fatal("WaitFinished should block while an item is still buffered")
	case <-time.After(50 * time.Millisecond):
	}

	_, err = q.Get()
	c.Assert(err, gc.IsNil)

	select {
	case err := <-waitDone:
		c.Assert(err, gc.IsNil)
	case <-time.After(2 * time.Second):
		c.Fatal("WaitFinished should unblock once the queue drains")
	}
}

func (s *QueueTestSuite) TestDestroyIsSafeAndTolerant(c *gc.C) {
	q, err := pipeline.NewQueue(4)
	c.Assert(err, gc.IsNil)
	c.Assert(q.Put(pipeline.NewItem("leftover")), gc.IsNil)

	q.Destroy()
	q.Destroy() // must not panic

	_, err = q.Get()
	c.Assert(err, gc.Equals, pipeline.ErrQueueUninitialized)
}
