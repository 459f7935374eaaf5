package core

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/valter-silva-au/gokvo/pkg/kvo"
	"github.com/valter-silva-au/gokvo/pkg/models"
)

// Change describes one notification delivered by a LiveObject.
type Change struct {
	Path    string `json:"path"`
	Old     any    `json:"old"`
	Current any    `json:"current"`
}

// LiveField is a point-in-time view of one leaf property.
type LiveField struct {
	Path     string              `json:"path"`
	Kind     models.PropertyKind `json:"kind"`
	Value    any                 `json:"value"`
	ReadOnly bool                `json:"read_only"`
}

// LiveObject is the interpreted form of a generated host type: it is built
// from an object description at runtime and backs every key with a
// kvo.Property. Like the properties it holds, it is not safe for concurrent
// use.
type LiveObject struct {
	typeName string
	prefix   string
	keys     []string
	specs    map[string]models.PropertySpec
	props    map[string]*kvo.Property[any]
	children map[string]*LiveObject

	// changes is shared by an object and all of its children.
	changes *kvo.Subscribers[Change]
}

// NewLiveObject validates obj the same way the generator does and builds a
// live object from it.
func NewLiveObject(obj models.ObjectSchema) (*LiveObject, error) {
	plan, err := CollectTypes(obj)
	if err != nil {
		return nil, err
	}
	return buildLiveObject(plan.RootType, "", obj, &kvo.Subscribers[Change]{}), nil
}

func buildLiveObject(typeName, prefix string, obj map[string]any, changes *kvo.Subscribers[Change]) *LiveObject {
	o := &LiveObject{
		typeName: typeName,
		prefix:   prefix,
		specs:    make(map[string]models.PropertySpec),
		props:    make(map[string]*kvo.Property[any]),
		children: make(map[string]*LiveObject),
		changes:  changes,
	}

	for _, k := range sortedKeys(obj) {
		if k == models.KeyTypeName || k == models.KeyPackage {
			continue
		}
		spec := EntryToProperty(k, obj[k], typeName)

		var initial any
		switch spec.Kind {
		case models.KindObject:
			child := buildLiveObject(spec.TypeName, prefix+k+".", obj[k].(map[string]any), changes)
			o.children[k] = child
			initial = child
		case models.KindExternal:
			initial = nil
		default:
			initial = primitiveValue(obj[k])
		}

		o.keys = append(o.keys, k)
		o.specs[k] = spec
		o.props[k] = kvo.NewProperty[any](initial, o.notifierFor(k))
	}
	return o
}

func (o *LiveObject) notifierFor(key string) kvo.Notifier[any] {
	return kvo.NotifierFunc[any](func(old any) error {
		return o.changes.Notify(Change{
			Path:    o.prefix + key,
			Old:     old,
			Current: o.props[key].Get(),
		})
	})
}

// TypeName returns the name of the type this object was built from.
func (o *LiveObject) TypeName() string {
	return o.typeName
}

// Subscribe registers fn for every change anywhere in the object tree.
func (o *LiveObject) Subscribe(fn func(c Change)) (unsubscribe func()) {
	return o.changes.Subscribe(fn)
}

// Get returns the value at a dotted path such as "address.city".
// Object-valued keys return their *LiveObject.
func (o *LiveObject) Get(path string) (any, error) {
	owner, key, err := o.resolve(path)
	if err != nil {
		return nil, err
	}
	return owner.props[key].Get(), nil
}

// SetFromString parses raw according to the kind of the property at path
// and updates it. Object and external properties cannot be set.
func (o *LiveObject) SetFromString(path, raw string) error {
	owner, key, err := o.resolve(path)
	if err != nil {
		return err
	}

	spec := owner.specs[key]
	if spec.IsComplex() {
		return fmt.Errorf("%w: %q holds %s", ErrReadOnly, path, spec.Type)
	}

	v, err := parseLiveValue(spec.Kind, raw)
	if err != nil {
		return fmt.Errorf("%w: %q expects %s, got %q", ErrInvalidValue, path, spec.Type, raw)
	}
	if err := owner.props[key].Update(v); err != nil {
		return fmt.Errorf("updating %q: %w", path, err)
	}
	return nil
}

// Fields returns every leaf property in path order. Nested objects are
// flattened into their own fields.
func (o *LiveObject) Fields() []LiveField {
	var fields []LiveField
	for _, k := range o.keys {
		spec := o.specs[k]
		if child, ok := o.children[k]; ok {
			fields = append(fields, child.Fields()...)
			continue
		}
		fields = append(fields, LiveField{
			Path:     o.prefix + k,
			Kind:     spec.Kind,
			Value:    o.props[k].Get(),
			ReadOnly: spec.IsComplex(),
		})
	}
	return fields
}

func (o *LiveObject) resolve(path string) (*LiveObject, string, error) {
	head, rest, nested := strings.Cut(path, ".")
	if _, ok := o.props[head]; !ok {
		return nil, "", fmt.Errorf("%w: %q", ErrUnknownKey, o.prefix+head)
	}
	if !nested {
		return o, head, nil
	}
	child, ok := o.children[head]
	if !ok {
		return nil, "", fmt.Errorf("%w: %q is not an object", ErrUnknownKey, o.prefix+head)
	}
	return child.resolve(rest)
}

func primitiveValue(v any) any {
	n, ok := v.(json.Number)
	if !ok {
		return v
	}
	if i, err := n.Int64(); err == nil && !isFloatLiteral(n.String()) {
		return i
	}
	f, _ := n.Float64()
	return f
}

func parseLiveValue(kind models.PropertyKind, raw string) (any, error) {
	switch kind {
	case models.KindBool:
		if b, ok := parseBoolLoose(raw); ok {
			return b, nil
		}
		return nil, fmt.Errorf("not a bool")
	case models.KindInt:
		return strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	case models.KindFloat:
		return strconv.ParseFloat(strings.TrimSpace(raw), 64)
	case models.KindString:
		return raw, nil
	default:
		return nil, fmt.Errorf("kind %q cannot be parsed", kind)
	}
}

// parseBoolLoose accepts the usual spellings of a boolean, case-insensitive.
func parseBoolLoose(s string) (bool, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "true", "t", "1", "yes", "y", "on":
		return true, true
	case "false", "f", "0", "no", "n", "off":
		return false, true
	default:
		return false, false
	}
}
