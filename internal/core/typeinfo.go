package core

import (
	"reflect"
	"strings"
	"sync"
)

// FieldInfo describes a single exported struct field that participates in
// wrapping and unwrapping.
type FieldInfo struct {
	Index int
	Name  string
}

// TypeInfo caches the draftable shape of a struct type.
type TypeInfo struct {
	Fields []FieldInfo
}

var typeCache sync.Map // map[reflect.Type]*TypeInfo

// GetTypeInfo returns the cached field information for typ, computing and
// caching it on first use. Unexported fields and fields tagged `draft:"-"`
// are skipped. A `draft:"name"` tag overrides the property name.
func GetTypeInfo(typ reflect.Type) *TypeInfo {
	if info, ok := typeCache.Load(typ); ok {
		return info.(*TypeInfo)
	}

	info := &TypeInfo{}
	if typ.Kind() == reflect.Struct {
		for i := 0; i < typ.NumField(); i++ {
			field := typ.Field(i)
			if !field.IsExported() {
				continue
			}
			name := field.Name
			if tag, ok := field.Tag.Lookup("draft"); ok {
				tagName, _, _ := strings.Cut(tag, ",")
				if tagName == "-" {
					continue
				}
				if tagName != "" {
					name = tagName
				}
			}
			info.Fields = append(info.Fields, FieldInfo{
				Index: i,
				Name:  name,
			})
		}
	}

	typeCache.Store(typ, info)
	return info
}

// FieldByName returns the field info for the given property name.
func (t *TypeInfo) FieldByName(name string) (FieldInfo, bool) {
	for _, f := range t.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return FieldInfo{}, false
}
