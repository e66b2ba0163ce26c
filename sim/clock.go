package sim

import (
	"errors"
	"sort"

	"github.com/rs/zerolog"

	"avsim/model"
	"avsim/stats"
)

// ServiceInterval is the tick period of both the signal controller and the
// vehicle service loop.
const ServiceInterval = 5

// pendingTrip is a due trip whose entry block was full at its departure
// tick; it is retried every tick, accruing stuck time while it waits.
type pendingTrip struct {
	trip  model.Trip
	stuck int
}

// Clock drives the whole simulation. One logical actor: each tick it injects
// due demand, every fifth tick recomputes all signals and serves the active
// vehicles ordered by arrival time plus stuck time, then advances. Given the
// same network and demand, two runs produce identical ledgers.
type Clock struct {
	net    *model.Network
	router *model.Router
	ledger *stats.Ledger
	log    zerolog.Logger
	sink   Sink

	now      int
	demand   []model.Trip
	nextTrip int
	pending  []pendingTrip
	vehicles []*model.Vehicle // insertion order; ties in service order fall back to this
	spawned  map[int]int      // vehicle id -> injection tick

	injected     int
	exited       int
	sumTripTicks int
	exitedByKind map[model.Kind]int
}

// NewClock builds a clock over the network with a sorted demand schedule.
func NewClock(net *model.Network, trips []model.Trip, log zerolog.Logger) *Clock {
	return &Clock{
		net:          net,
		router:       model.NewRouter(net),
		ledger:       stats.NewLedger(),
		log:          log,
		demand:       trips,
		spawned:      make(map[int]int),
		exitedByKind: make(map[model.Kind]int),
	}
}

// OnEvent registers a synchronous event sink.
func (c *Clock) OnEvent(sink Sink) { c.sink = sink }

// Ledger exposes the simulation record.
func (c *Clock) Ledger() *stats.Ledger { return c.ledger }

// Router exposes the clock's router.
func (c *Clock) Router() *model.Router { return c.router }

// Now returns the current tick.
func (c *Clock) Now() int { return c.now }

// ActiveVehicles returns how many vehicles are currently on the road.
func (c *Clock) ActiveVehicles() int { return len(c.vehicles) }

// Run advances the clock until the given end tick or a routing failure.
func (c *Clock) Run(until int) error {
	for c.now < until {
		if err := c.Tick(); err != nil {
			return err
		}
	}
	c.emit(DoneEvent{Ticks: c.now, Injected: c.injected, Exited: c.exited, Active: len(c.vehicles)})
	c.log.Info().
		Int("ticks", c.now).
		Int("injected", c.injected).
		Int("exited", c.exited).
		Int("active", len(c.vehicles)).
		Msg("simulation finished")
	return nil
}

// Tick executes one tick: inject due vehicles, then on every fifth tick
// update all signals and serve the active vehicles, then advance time.
func (c *Clock) Tick() error {
	if err := c.inject(); err != nil {
		return err
	}
	if c.now%ServiceInterval == 0 {
		c.updateSignals()
		if err := c.serveVehicles(); err != nil {
			return err
		}
	}
	c.now++
	return nil
}

// inject places due trips on the road: first the deferred ones, oldest
// first, then new departures. A trip whose entry block is full stays
// pending and gains one tick of stuck time per deferral.
func (c *Clock) inject() error {
	kept := c.pending[:0]
	for _, p := range c.pending {
		ok, err := c.tryInject(p.trip, p.stuck)
		if err != nil {
			return err
		}
		if !ok {
			p.stuck++
			kept = append(kept, p)
			c.emit(VehicleDeferredEvent{Tick: c.now, VehicleID: p.trip.ID, StuckTime: p.stuck})
		}
	}
	c.pending = kept

	for c.nextTrip < len(c.demand) && c.demand[c.nextTrip].Departure <= c.now {
		t := c.demand[c.nextTrip]
		c.nextTrip++
		ok, err := c.tryInject(t, 0)
		if err != nil {
			return err
		}
		if !ok {
			c.pending = append(c.pending, pendingTrip{trip: t, stuck: 1})
			c.emit(VehicleDeferredEvent{Tick: c.now, VehicleID: t.ID, StuckTime: 1})
		}
	}
	return nil
}

// tryInject attempts one injection; ok=false means the entry block was full.
func (c *Clock) tryInject(t model.Trip, stuck int) (bool, error) {
	v, err := model.NewVehicle(c.net, c.router, c.ledger, t.ID, t.Kind, t.Origin, t.Destination, t.LaneID, c.now, stuck)
	if errors.Is(err, model.ErrEntryBlocked) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	c.vehicles = append(c.vehicles, v)
	c.spawned[v.ID] = c.now
	c.injected++
	c.log.Debug().
		Int("tick", c.now).
		Int("vehicle", v.ID).
		Str("kind", v.Kind.String()).
		Str("origin", t.Origin).
		Str("destination", t.Destination).
		Str("first_hop", v.EdgeTo).
		Msg("vehicle injected")
	c.emit(VehicleAddEvent{
		Tick:        c.now,
		VehicleID:   v.ID,
		Kind:        v.Kind,
		Origin:      t.Origin,
		Destination: t.Destination,
		FirstHop:    v.EdgeTo,
		Lane:        t.LaneID,
	})
	return true, nil
}

// updateSignals recomputes every intersection's lights from the ledger, in
// sorted node order.
func (c *Clock) updateSignals() {
	for _, node := range c.net.Nodes() {
		totals := c.net.Intersection(node).UpdateSignals(c.ledger)
		if totals.Blue > 0 || totals.Green > 0 {
			c.log.Debug().
				Int("tick", c.now).
				Str("node", node).
				Int("blue", totals.Blue).
				Int("green", totals.Green).
				Str("served", totals.Served).
				Msg("signals updated")
			c.emit(SignalsUpdatedEvent{Tick: c.now, Node: node, Blue: totals.Blue, Green: totals.Green, Served: totals.Served})
		}
	}
}

// serveVehicles steps every active vehicle, earliest arrival plus stuck time
// first, ties in insertion order.
func (c *Clock) serveVehicles() error {
	order := make([]*model.Vehicle, 0, len(c.vehicles))
	order = append(order, c.vehicles...)
	sort.SliceStable(order, func(i, j int) bool {
		return order[i].ArrivalTime+order[i].StuckTime < order[j].ArrivalTime+order[j].StuckTime
	})
	for _, v := range order {
		if err := v.Step(c.now); err != nil {
			return err
		}
		if !v.Active {
			c.exited++
			c.exitedByKind[v.Kind]++
			c.sumTripTicks += c.now - c.spawned[v.ID]
			c.log.Debug().
				Int("tick", c.now).
				Int("vehicle", v.ID).
				Int("travel_ticks", c.now-c.spawned[v.ID]).
				Msg("vehicle exited")
			c.emit(VehicleExitEvent{
				Tick:        c.now,
				VehicleID:   v.ID,
				Kind:        v.Kind,
				TravelTicks: c.now - c.spawned[v.ID],
				StuckTime:   v.StuckTime,
			})
		}
	}
	kept := c.vehicles[:0]
	for _, v := range c.vehicles {
		if v.Active {
			kept = append(kept, v)
		}
	}
	c.vehicles = kept
	return nil
}

func (c *Clock) emit(e Event) {
	if c.sink != nil {
		c.sink(e)
	}
}

// Summary aggregates the run for reporting.
type Summary struct {
	Ticks         int
	Injected      int
	Exited        int
	Active        int
	ExitedHDV     int
	ExitedAV      int
	MeanTripTicks float64
	LedgerRows    int
}

// Summary returns the run aggregates at the current tick.
func (c *Clock) Summary() Summary {
	s := Summary{
		Ticks:      c.now,
		Injected:   c.injected,
		Exited:     c.exited,
		Active:     len(c.vehicles),
		ExitedHDV:  c.exitedByKind[model.KindHDV],
		ExitedAV:   c.exitedByKind[model.KindAV],
		LedgerRows: c.ledger.Len(),
	}
	if c.exited > 0 {
		s.MeanTripTicks = float64(c.sumTripTicks) / float64(c.exited)
	}
	return s
}
