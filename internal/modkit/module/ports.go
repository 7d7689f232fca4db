package module

import "reflect"

// PortSet is what a module's Ports returns: one port interface or a struct of them.
// The ingest module returns a struct carrying its worker, inbox and stats ports.
type PortSet = any

// PortsOf finds the first port in m.Ports() that implements T.
// A struct bundle is searched one exported field at a time.
func PortsOf[T any](m Module) (T, bool) {
	var zero T
	p := m.Ports()
	if p == nil {
		return zero, false
	}
	if v, ok := p.(T); ok {
		return v, true
	}
	rv := reflect.ValueOf(p)
	if rv.Kind() != reflect.Struct {
		return zero, false
	}
	for i := 0; i < rv.NumField(); i++ {
		if !rv.Type().Field(i).IsExported() {
			continue
		}
		if v, ok := rv.Field(i).Interface().(T); ok {
			return v, true
		}
	}
	return zero, false
}

// MustPortsOf is PortsOf for wiring code in cmd/, where a missing port is a build mistake
func MustPortsOf[T any](m Module) T {
	v, ok := PortsOf[T](m)
	if !ok {
		var want T
		panic("module: " + m.Name() + " has no port of type " + reflect.TypeOf(&want).Elem().String())
	}
	return v
}
