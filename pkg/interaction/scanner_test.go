package interaction

import (
	"testing"

	"github.com/jwebster45206/platformer/pkg/inventory"
	"github.com/jwebster45206/platformer/pkg/item"
	"github.com/jwebster45206/platformer/pkg/world"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeNPC struct {
	talking bool
	starts  int
}

func (n *fakeNPC) StartDialogue() bool {
	n.starts++
	if n.talking {
		return false
	}
	n.talking = true
	return true
}

func lookup(npcs map[string]*fakeNPC) NPCLookup {
	return func(key string) (DialogueStarter, bool) {
		n, ok := npcs[key]
		return n, ok
	}
}

func TestScan_OnlyInteractables(t *testing.T) {
	s := world.NewSpace(nil)
	s.Spawn(world.Body{Name: "Ground_01", HalfSize: world.Vec2{X: 10, Y: 0.5}})
	npc := s.Spawn(world.Body{Name: "Merchant", Tag: world.TagNPC, Key: "merchant"})
	pickup, err := s.SpawnItem(item.New("Potion", "", "", item.Consumable, true, 1), world.Vec2{X: 1})
	require.NoError(t, err)
	s.Spawn(world.Body{Name: "FarNPC", Tag: world.TagNPC, Key: "far", Position: world.Vec2{X: 10}})

	scanner := NewScanner(s, nil, inventory.New(2, nil), nil)
	found := scanner.Scan(world.Vec2{}, DefaultRadius)

	require.Len(t, found, 2)
	assert.Equal(t, npc.ID, found[0].ID)
	assert.Equal(t, pickup.ID, found[1].ID)
}

func TestInteract_PicksUpAndDestroys(t *testing.T) {
	s := world.NewSpace(nil)
	inv := inventory.New(4, nil)
	body, err := s.SpawnItem(item.New("Potion", "", "", item.Consumable, true, 2), world.Vec2{X: 0.5})
	require.NoError(t, err)

	scanner := NewScanner(s, nil, inv, nil)
	outcomes := scanner.Interact(world.Vec2{}, DefaultRadius)

	require.Len(t, outcomes, 1)
	assert.Equal(t, ActionPickedUp, outcomes[0].Action)
	assert.NoError(t, outcomes[0].Err)
	assert.Equal(t, 2, inv.QuantityOf("Potion"))

	_, err = s.Get(body.ID)
	assert.ErrorIs(t, err, world.ErrBodyNotFound)
}

func TestInteract_FullInventoryLeavesItem(t *testing.T) {
	s := world.NewSpace(nil)
	inv := inventory.New(1, nil)
	require.NoError(t, inv.Add(item.New("Sword", "", "", item.Equipment, false, 1)))
	before := inv.Slots()

	body, err := s.SpawnItem(item.New("Shield", "", "", item.Equipment, false, 1), world.Vec2{})
	require.NoError(t, err)

	outcomes := NewScanner(s, nil, inv, nil).Interact(world.Vec2{}, DefaultRadius)

	require.Len(t, outcomes, 1)
	assert.Equal(t, ActionPickupFailed, outcomes[0].Action)
	assert.ErrorIs(t, outcomes[0].Err, inventory.ErrInventoryFull)
	assert.Equal(t, before, inv.Slots())

	_, err = s.Get(body.ID)
	assert.NoError(t, err, "item stays in the world")
}

func TestInteract_NPCIdempotent(t *testing.T) {
	s := world.NewSpace(nil)
	s.Spawn(world.Body{Name: "Merchant", Tag: world.TagNPC, Key: "merchant"})
	npcs := map[string]*fakeNPC{"merchant": {}}

	scanner := NewScanner(s, lookup(npcs), inventory.New(1, nil), nil)

	first := scanner.Interact(world.Vec2{}, DefaultRadius)
	require.Len(t, first, 1)
	assert.Equal(t, ActionDialogueStarted, first[0].Action)

	second := scanner.Interact(world.Vec2{}, DefaultRadius)
	require.Len(t, second, 1)
	assert.Equal(t, ActionDialogueBusy, second[0].Action)
	assert.Equal(t, 2, npcs["merchant"].starts)
}

func TestInteract_UnknownNPC(t *testing.T) {
	s := world.NewSpace(nil)
	s.Spawn(world.Body{Name: "Stranger", Tag: world.TagNPC, Key: "stranger"})

	outcomes := NewScanner(s, lookup(nil), inventory.New(1, nil), nil).Interact(world.Vec2{}, DefaultRadius)

	require.Len(t, outcomes, 1)
	assert.Equal(t, ActionUnknownNPC, outcomes[0].Action)
	assert.ErrorIs(t, outcomes[0].Err, ErrUnknownNPC)
}

func TestInteract_DeterministicOrder(t *testing.T) {
	run := func() []Action {
		s := world.NewSpace(nil)
		inv := inventory.New(1, nil)
		for _, name := range []string{"A", "B", "C"} {
			_, err := s.SpawnItem(item.New(name, "", "", item.Misc, false, 1), world.Vec2{})
			require.NoError(t, err)
		}
		var actions []Action
		for _, o := range NewScanner(s, nil, inv, nil).Interact(world.Vec2{}, DefaultRadius) {
			actions = append(actions, o.Action)
		}
		return actions
	}

	want := []Action{ActionPickedUp, ActionPickupFailed, ActionPickupFailed}
	for i := 0; i < 3; i++ {
		assert.Equal(t, want, run())
	}
}

func TestInteract_NothingInRange(t *testing.T) {
	s := world.NewSpace(nil)
	outcomes := NewScanner(s, nil, inventory.New(1, nil), nil).Interact(world.Vec2{}, DefaultRadius)
	assert.Empty(t, outcomes)
}
