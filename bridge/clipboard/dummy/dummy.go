package dummy

// Driver keeps the clipboard in memory. Useful for bring-up against a
// hypervisor without a display server, and for tests.
type Driver struct {
	Data   []byte
	Writes int
}

func (d *Driver) Open() error {
	return nil
}

func (d *Driver) Close() error {
	return nil
}

func (d *Driver) Read() ([]byte, error) {
	data := make([]byte, len(d.Data))
	copy(data, d.Data)
	return data, nil
}

func (d *Driver) Write(data []byte) error {
	d.Data = make([]byte, len(data))
	copy(d.Data, data)
	d.Writes++
	return nil
}

func NewDriver() *Driver {
	return &Driver{}
}
