package league

import "fmt"

// Catalog indexes entities by id. The slices it was built from stay the
// source of truth; the catalog holds the same pointers.
type Catalog struct {
	players     map[int]*Player
	teams       map[int]*Team
	teamsByCode map[int]*Team
	matches     map[int]*Match
}

// NewCatalog indexes the entities, rejecting duplicate ids.
func NewCatalog(players []*Player, teams []*Team, matches []*Match) (*Catalog, error) {
	c := &Catalog{
		players:     make(map[int]*Player, len(players)),
		teams:       make(map[int]*Team, len(teams)),
		teamsByCode: make(map[int]*Team, len(teams)),
		matches:     make(map[int]*Match, len(matches)),
	}
	for _, p := range players {
		if _, dup := c.players[p.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate player %d", ErrInvalidInput, p.ID)
		}
		c.players[p.ID] = p
	}
	for _, t := range teams {
		if _, dup := c.teams[t.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate team %d", ErrInvalidInput, t.ID)
		}
		c.teams[t.ID] = t
		c.teamsByCode[t.Code] = t
	}
	for _, m := range matches {
		if _, dup := c.matches[m.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate match %d", ErrInvalidInput, m.ID)
		}
		c.matches[m.ID] = m
	}
	return c, nil
}

func (c *Catalog) Player(id int) (*Player, error) {
	if p, ok := c.players[id]; ok {
		return p, nil
	}
	return nil, fmt.Errorf("%w: player %d", ErrNotFound, id)
}

func (c *Catalog) Team(id int) (*Team, error) {
	if t, ok := c.teams[id]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: team %d", ErrNotFound, id)
}

func (c *Catalog) TeamByCode(code int) (*Team, error) {
	if t, ok := c.teamsByCode[code]; ok {
		return t, nil
	}
	return nil, fmt.Errorf("%w: team code %d", ErrNotFound, code)
}

func (c *Catalog) Match(id int) (*Match, error) {
	if m, ok := c.matches[id]; ok {
		return m, nil
	}
	return nil, fmt.Errorf("%w: match %d", ErrNotFound, id)
}
