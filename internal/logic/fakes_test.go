package logic

import "errors"

type fakeSerial struct {
	writes [][]byte
	err    error
}

func (f *fakeSerial) Write(p []byte) (int, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.writes = append(f.writes, append([]byte(nil), p...))
	return len(p), nil
}

type fakeLight struct {
	on    bool
	calls int
}

func (f *fakeLight) SetRGB(r, g, b bool) error {
	f.on = r && g && b
	f.calls++
	return nil
}

type fakeDimmer struct {
	levels []uint8
}

func (f *fakeDimmer) SetBrightness(level uint8) error {
	f.levels = append(f.levels, level)
	return nil
}

type fakeBargraph struct {
	fills []int
}

func (f *fakeBargraph) Fill(n int) error {
	f.fills = append(f.fills, n)
	return nil
}

type memStore struct {
	data   []byte
	failAt int
	writes int
}

func newMemStore(size int) *memStore {
	s := &memStore{data: make([]byte, size), failAt: -1}
	for i := range s.data {
		s.data[i] = 0xFF
	}
	return s
}

func (m *memStore) Size() int { return len(m.data) }

func (m *memStore) ReadAddr(addr int) (byte, error) {
	return m.data[addr], nil
}

func (m *memStore) WriteAddr(addr int, v byte) error {
	if addr == m.failAt {
		return errors.New("write fault")
	}
	m.writes++
	m.data[addr] = v
	return nil
}

type fakeHost struct {
	ready    bool
	received [][]byte
	err      error
}

func (h *fakeHost) Ready() bool { return h.ready }

func (h *fakeHost) Receive(samples []byte) error {
	if h.err != nil {
		return h.err
	}
	h.received = append(h.received, samples)
	return nil
}
