package ticketing

import (
	"context"
	"fmt"
	"strconv"
	"sync"
	"time"
)

// fakeDirectory is a guild held in memory.
type fakeDirectory struct {
	mut sync.Mutex

	guildID  string
	channels map[string]bool
	roles    map[string]bool
	members  map[string]*Member
	threads  map[string]*Thread

	// visible is keyed by channel then member.
	visible map[string]map[string]bool

	// memberRoles is keyed by member then role.
	memberRoles map[string]map[string]bool

	// threadMembers is keyed by thread then member.
	threadMembers map[string]map[string]bool

	// errs makes the named method fail.
	errs map[string]error

	// panics makes Thread panic for the given thread.
	panics map[string]bool

	nextThread int
	createdAt  time.Time
}

func newFakeDirectory(guildID string) *fakeDirectory {
	return &fakeDirectory{
		guildID:       guildID,
		channels:      make(map[string]bool),
		roles:         make(map[string]bool),
		members:       make(map[string]*Member),
		threads:       make(map[string]*Thread),
		visible:       make(map[string]map[string]bool),
		memberRoles:   make(map[string]map[string]bool),
		threadMembers: make(map[string]map[string]bool),
		errs:          make(map[string]error),
		panics:        make(map[string]bool),
		nextThread:    1000,
	}
}

func (d *fakeDirectory) fail(method string) error {
	return d.errs[method]
}

func (d *fakeDirectory) ResolveChannel(_ context.Context, _, channelID string) error {
	d.mut.Lock()
	defer d.mut.Unlock()

	if err := d.fail("ResolveChannel"); err != nil {
		return err
	}
	if !d.channels[channelID] {
		return fmt.Errorf("channel %s: %w", channelID, ErrNotFound)
	}
	return nil
}

func (d *fakeDirectory) ResolveRole(_ context.Context, _, roleID string) error {
	d.mut.Lock()
	defer d.mut.Unlock()

	if !d.roles[roleID] {
		return fmt.Errorf("role %s: %w", roleID, ErrNotFound)
	}
	return nil
}

func (d *fakeDirectory) Member(_ context.Context, _, memberID string) (*Member, error) {
	d.mut.Lock()
	defer d.mut.Unlock()

	m, ok := d.members[memberID]
	if !ok {
		return nil, fmt.Errorf("member %s: %w", memberID, ErrNotFound)
	}
	c := *m
	return &c, nil
}

func (d *fakeDirectory) Thread(_ context.Context, _, threadID string) (*Thread, error) {
	d.mut.Lock()
	defer d.mut.Unlock()

	if d.panics[threadID] {
		panic("thread lookup exploded")
	}
	if err := d.fail("Thread:" + threadID); err != nil {
		return nil, err
	}
	t, ok := d.threads[threadID]
	if !ok {
		return nil, fmt.Errorf("thread %s: %w", threadID, ErrNotFound)
	}
	c := *t
	return &c, nil
}

func (d *fakeDirectory) SetChannelVisibility(_ context.Context, channelID, memberID string, visible bool) error {
	d.mut.Lock()
	defer d.mut.Unlock()

	if err := d.fail("SetChannelVisibility"); err != nil {
		return err
	}
	if d.visible[channelID] == nil {
		d.visible[channelID] = make(map[string]bool)
	}
	d.visible[channelID][memberID] = visible
	return nil
}

func (d *fakeDirectory) CreateThread(_ context.Context, guildID, channelID, name string) (*Thread, error) {
	d.mut.Lock()
	defer d.mut.Unlock()

	if err := d.fail("CreateThread"); err != nil {
		return nil, err
	}
	d.nextThread++
	t := &Thread{
		ID:           strconv.Itoa(d.nextThread),
		GuildID:      guildID,
		ParentID:     channelID,
		Name:         name,
		LastActivity: d.createdAt,
	}
	d.threads[t.ID] = t
	d.threadMembers[t.ID] = make(map[string]bool)
	c := *t
	return &c, nil
}

func (d *fakeDirectory) AddThreadMember(_ context.Context, threadID, memberID string) error {
	d.mut.Lock()
	defer d.mut.Unlock()

	if d.threadMembers[threadID] == nil {
		d.threadMembers[threadID] = make(map[string]bool)
	}
	d.threadMembers[threadID][memberID] = true
	return nil
}

func (d *fakeDirectory) RemoveThreadMember(_ context.Context, threadID, memberID string) error {
	d.mut.Lock()
	defer d.mut.Unlock()

	if err := d.fail("RemoveThreadMember"); err != nil {
		return err
	}
	delete(d.threadMembers[threadID], memberID)
	return nil
}

func (d *fakeDirectory) AddRole(_ context.Context, _, memberID, roleID string) error {
	d.mut.Lock()
	defer d.mut.Unlock()

	if d.memberRoles[memberID] == nil {
		d.memberRoles[memberID] = make(map[string]bool)
	}
	d.memberRoles[memberID][roleID] = true
	return nil
}

func (d *fakeDirectory) RemoveRole(_ context.Context, _, memberID, roleID string) error {
	d.mut.Lock()
	defer d.mut.Unlock()

	delete(d.memberRoles[memberID], roleID)
	return nil
}

func (d *fakeDirectory) isVisible(channelID, memberID string) bool {
	d.mut.Lock()
	defer d.mut.Unlock()
	return d.visible[channelID][memberID]
}

func (d *fakeDirectory) hasRole(memberID, roleID string) bool {
	d.mut.Lock()
	defer d.mut.Unlock()
	return d.memberRoles[memberID][roleID]
}

func (d *fakeDirectory) inThread(threadID, memberID string) bool {
	d.mut.Lock()
	defer d.mut.Unlock()
	return d.threadMembers[threadID][memberID]
}

func (d *fakeDirectory) setLastActivity(threadID string, at time.Time) {
	d.mut.Lock()
	defer d.mut.Unlock()
	d.threads[threadID].LastActivity = at
}

type sentMessage struct {
	to      string
	content string
}

// fakeMessenger records the messages it is asked to send.
type fakeMessenger struct {
	mut sync.Mutex

	sent   []sentMessage
	direct []sentMessage

	sendErr   error
	directErr error
}

func (m *fakeMessenger) Send(_ context.Context, channelID, content string) error {
	m.mut.Lock()
	defer m.mut.Unlock()

	if m.sendErr != nil {
		return m.sendErr
	}
	m.sent = append(m.sent, sentMessage{to: channelID, content: content})
	return nil
}

func (m *fakeMessenger) SendDirect(_ context.Context, userID, content string) error {
	m.mut.Lock()
	defer m.mut.Unlock()

	if m.directErr != nil {
		return m.directErr
	}
	m.direct = append(m.direct, sentMessage{to: userID, content: content})
	return nil
}

func (m *fakeMessenger) sentTo(channelID string) []string {
	m.mut.Lock()
	defer m.mut.Unlock()

	out := make([]string, 0)
	for _, s := range m.sent {
		if s.to == channelID {
			out = append(out, s.content)
		}
	}
	return out
}

func (m *fakeMessenger) directCount() int {
	m.mut.Lock()
	defer m.mut.Unlock()
	return len(m.direct)
}
