package utils

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

// ErrAborted is returned from blocking calls on ranks that were released
// because another rank failed
var ErrAborted = errors.New("aborted by another rank")

// Communicator is the collective message passing surface used by the mesh
// generator. All ranks of a group must call the collectives in the same order.
type Communicator interface {
	Rank() int
	Size() int
	// Broadcast returns root's data on every rank
	Broadcast(root int, data []int) ([]int, error)
	// AllGather returns the value contributed by each rank, indexed by rank
	AllGather(value int) ([]int, error)
}

type Message[T any] struct {
	From, Tag int
	Payload   T
}

/*
MailBox passes tagged messages between NP goroutine ranks. Messages that
arrive ahead of the one a rank is waiting for are parked per rank until
asked for. Abort releases every blocked sender and receiver.
*/
type MailBox[T any] struct {
	NP           int
	MessageChans []chan Message[T] // One for each rank
	pending      [][]Message[T]    // Received out of order, one for each rank
	done         chan struct{}
	abortOnce    sync.Once
	abortErr     error
}

func NewMailBox[T any](NP int) *MailBox[T] {
	mb := &MailBox[T]{
		NP:           NP,
		MessageChans: make([]chan Message[T], NP),
		pending:      make([][]Message[T], NP),
		done:         make(chan struct{}),
	}
	for n := 0; n < NP; n++ {
		// Two collectives in flight, all-to-all
		mb.MessageChans[n] = make(chan Message[T], 2*NP)
	}
	return mb
}

func (mb *MailBox[T]) PostMessage(myRank, targetRank, tag int, msg T) error {
	if targetRank < 0 || targetRank > mb.NP-1 {
		return fmt.Errorf("target rank %d out of bounds", targetRank)
	}
	select {
	case <-mb.done:
		return ErrAborted
	default:
	}
	select {
	case mb.MessageChans[targetRank] <- Message[T]{From: myRank, Tag: tag, Payload: msg}:
		return nil
	case <-mb.done:
		return ErrAborted
	}
}

func (mb *MailBox[T]) PostMessageToAll(myRank, tag int, msg T) error {
	for k := 0; k < mb.NP; k++ {
		if k != myRank {
			if err := mb.PostMessage(myRank, k, tag, msg); err != nil {
				return err
			}
		}
	}
	return nil
}

// ReceiveMessage blocks until the message from rank "from" with the tag arrives
func (mb *MailBox[T]) ReceiveMessage(myRank, from, tag int) (msg T, err error) {
	for i, m := range mb.pending[myRank] {
		if m.From == from && m.Tag == tag {
			mb.pending[myRank] = append(mb.pending[myRank][:i], mb.pending[myRank][i+1:]...)
			return m.Payload, nil
		}
	}
	for {
		select {
		case m := <-mb.MessageChans[myRank]:
			if m.From == from && m.Tag == tag {
				return m.Payload, nil
			}
			mb.pending[myRank] = append(mb.pending[myRank], m)
		case <-mb.done:
			err = ErrAborted
			return
		}
	}
}

// Abort releases all ranks, the first error wins
func (mb *MailBox[T]) Abort(err error) {
	mb.abortOnce.Do(func() {
		mb.abortErr = err
		close(mb.done)
	})
}

func (mb *MailBox[T]) Err() error {
	select {
	case <-mb.done:
		return mb.abortErr
	default:
		return nil
	}
}

// LocalComm is one rank of an in-process group sharing a MailBox
type LocalComm struct {
	rank int
	mb   *MailBox[[]int]
	seq  int
}

func NewLocalGroup(np int) (comms []*LocalComm) {
	mb := NewMailBox[[]int](np)
	comms = make([]*LocalComm, np)
	for n := range comms {
		comms[n] = &LocalComm{rank: n, mb: mb}
	}
	return
}

func (c *LocalComm) Rank() int { return c.rank }
func (c *LocalComm) Size() int { return c.mb.NP }

func (c *LocalComm) Abort(err error) { c.mb.Abort(err) }

func (c *LocalComm) Broadcast(root int, data []int) (out []int, err error) {
	if root < 0 || root >= c.mb.NP {
		err = fmt.Errorf("broadcast root %d out of bounds for %d ranks", root, c.mb.NP)
		return
	}
	c.seq++
	if c.rank == root {
		out = append([]int(nil), data...)
		for k := 0; k < c.mb.NP; k++ {
			if k != root {
				if err = c.mb.PostMessage(c.rank, k, c.seq, append([]int(nil), data...)); err != nil {
					return nil, err
				}
			}
		}
		return
	}
	return c.mb.ReceiveMessage(c.rank, root, c.seq)
}

func (c *LocalComm) AllGather(value int) (out []int, err error) {
	var msg []int
	c.seq++
	if err = c.mb.PostMessageToAll(c.rank, c.seq, []int{value}); err != nil {
		return
	}
	out = make([]int, c.mb.NP)
	out[c.rank] = value
	for k := 0; k < c.mb.NP; k++ {
		if k == c.rank {
			continue
		}
		if msg, err = c.mb.ReceiveMessage(c.rank, k, c.seq); err != nil {
			return nil, err
		}
		out[k] = msg[0]
	}
	return
}

// SerialComm is the single rank communicator
type SerialComm struct{}

func (SerialComm) Rank() int { return 0 }
func (SerialComm) Size() int { return 1 }
func (SerialComm) Broadcast(root int, data []int) ([]int, error) {
	if root != 0 {
		return nil, fmt.Errorf("broadcast root %d out of bounds for 1 rank", root)
	}
	return append([]int(nil), data...), nil
}
func (SerialComm) AllGather(value int) ([]int, error) { return []int{value}, nil }

/*
RunLocal runs fn on np goroutine ranks and waits for all of them. A failing
rank aborts the group, the remaining ranks see ErrAborted from their next
collective. The first failure other than ErrAborted is returned.
*/
func RunLocal(np int, fn func(comm Communicator) error) (err error) {
	if np < 1 {
		return fmt.Errorf("number of ranks must be positive, have %d", np)
	}
	var (
		comms = NewLocalGroup(np)
		errs  = make([]error, np)
		wg    = sync.WaitGroup{}
	)
	for n := 0; n < np; n++ {
		wg.Add(1)
		go func(n int) {
			defer wg.Done()
			if errs[n] = fn(comms[n]); errs[n] != nil {
				comms[n].Abort(errs[n])
			}
		}(n)
	}
	wg.Wait()
	if err = comms[0].mb.Err(); err != nil && !errors.Is(err, ErrAborted) {
		return
	}
	for _, e := range errs {
		if e != nil && !errors.Is(e, ErrAborted) {
			return e
		}
	}
	return err
}

// Distribution is a table of rank boundaries, rank r owns [d[r], d[r+1])
type Distribution []int

// NewDistribution is the exclusive prefix sum of per rank counts
func NewDistribution(counts []int) (d Distribution) {
	d = make(Distribution, len(counts)+1)
	for r, c := range counts {
		d[r+1] = d[r] + c
	}
	return
}

func (d Distribution) NumRanks() int { return len(d) - 1 }

func (d Distribution) Range(rank int) (begin, end int) {
	return d[rank], d[rank+1]
}

func (d Distribution) Total() int { return d[len(d)-1] }

// Owner finds the rank whose range contains idx, -1 when out of range
func (d Distribution) Owner(idx int) int {
	if len(d) < 2 || idx < d[0] || idx >= d[len(d)-1] {
		return -1
	}
	// first boundary strictly greater than idx
	ub := sort.Search(len(d), func(i int) bool { return d[i] > idx })
	return ub - 1
}

// Validate checks the table is non decreasing and starts at zero
func (d Distribution) Validate() error {
	if len(d) < 2 {
		return fmt.Errorf("distribution needs at least 2 entries, has %d", len(d))
	}
	if d[0] != 0 {
		return fmt.Errorf("distribution must start at 0, starts at %d", d[0])
	}
	for i := 1; i < len(d); i++ {
		if d[i] < d[i-1] {
			return fmt.Errorf("distribution decreases at entry %d: %v", i, []int(d))
		}
	}
	return nil
}

// PartitionMap splits [0,MaxIndex) into ParallelDegree contiguous ranges
type PartitionMap struct {
	MaxIndex       int
	ParallelDegree int
	Partitions     [][2]int // Beginning and end index of partitions
}

func NewPartitionMap(ParallelDegree, maxIndex int) (pm *PartitionMap) {
	pm = &PartitionMap{
		MaxIndex:       maxIndex,
		ParallelDegree: ParallelDegree,
		Partitions:     make([][2]int, ParallelDegree),
	}
	for n := 0; n < ParallelDegree; n++ {
		pm.Partitions[n] = pm.Split1D(n)
	}
	return
}

// EvenBlockDistribution spreads nbBlocks over nbRanks contiguous ranges
func EvenBlockDistribution(nbBlocks, nbRanks int) (d Distribution) {
	pm := NewPartitionMap(nbRanks, nbBlocks)
	d = make(Distribution, nbRanks+1)
	for n := 0; n < nbRanks; n++ {
		d[n] = pm.Partitions[n][0]
	}
	d[nbRanks] = nbBlocks
	return
}

// Split1D is the index range of one partition, the first MaxIndex %
// ParallelDegree partitions holding one extra index
func (pm *PartitionMap) Split1D(rank int) (bucket [2]int) {
	var (
		size      = pm.MaxIndex / pm.ParallelDegree
		remainder = pm.MaxIndex % pm.ParallelDegree
		extra     int
	)
	if rank < remainder {
		bucket[0] = rank * (size + 1)
		extra = 1
	} else {
		bucket[0] = rank*size + remainder
	}
	bucket[1] = bucket[0] + size + extra
	return
}
