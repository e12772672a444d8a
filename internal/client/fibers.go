package client

import (
	"github.com/simonhuber95/Fog-Node-Discovery/internal/simtime"
)

// Start launches the move fiber and the task/reconnection cycle. The
// client's very first discovery happens immediately and does not count
// toward reconnections; every later re-probe does.
func (c *Client) Start() {
	c.sendDiscovery()
	c.scheduleMove(1)
	c.scheduleOut(c.nextTaskPeriod())
}

func (c *Client) scheduleMove(delay simtime.Time) {
	c.sched.After(delay, func(*simtime.Scheduler) {
		if c.Stopped {
			return
		}
		c.moveTick()
		if !c.Stopped {
			c.scheduleMove(1)
		}
	})
}

// moveTick advances the client one virtual second along its trip plan,
// folding in the monitor fiber's termination checks (out-of-bounds, plan
// exhausted) since both run on the same 1s tick, §4.5.
func (c *Client) moveTick() {
	if len(c.plan) < 2 {
		c.stop("plan_exhausted")
		return
	}
	if c.legIdx >= len(c.plan)-1 {
		c.stop("plan_exhausted")
		return
	}
	cur := c.plan[c.legIdx]
	next := c.plan[c.legIdx+1]
	c.legElapsed++

	t := 1.0
	if next.TravTime > 0 {
		t = c.legElapsed / next.TravTime
		if t > 1 {
			t = 1
		}
	}
	c.Position = cur.Position.Lerp(next.Position, t)
	if t >= 1 {
		c.legIdx++
		c.legElapsed = 0
	}
	if !c.area.Contains(c.Position) {
		c.stop("out_of_bounds")
	}
}

func (c *Client) scheduleOut(delay simtime.Time) {
	c.sched.After(delay, func(*simtime.Scheduler) {
		if c.Stopped {
			return
		}
		c.outTick()
		if !c.Stopped {
			c.scheduleOut(c.nextTaskPeriod())
		}
	})
}

// nextTaskPeriod draws the per-cycle task period from [0.5, 1.0]s, seeded
// per client via c.rng.
func (c *Client) nextTaskPeriod() simtime.Time {
	return simtime.Time(0.5 + c.rng.Float64()*0.5)
}

// outTick is the task cycle evaluate the three
// reconnection rules, re-probe on any failure, else send a routine task.
func (c *Client) outTick() {
	now := float64(c.sched.Now())
	if c.needsReconnect(now) {
		if c.discovered {
			c.Reconnections++
		}
		c.sendDiscovery()
		return
	}
	c.sendTask()
}
