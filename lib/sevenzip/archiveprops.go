// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package sevenzip

import (
	"fmt"

	"github.com/bureau-foundation/sevenzip/lib/sevenzip/wire"
)

// ArchiveProperty is one opaque archive-level property. No property
// types are defined by the format today; they are carried through
// unchanged so a rewrite does not drop them.
type ArchiveProperty struct {
	Type byte
	Data []byte
}

// ArchiveProperties is the optional record that follows the HEADER
// tag:
//
//	02 (type size data)… 00
type ArchiveProperties struct {
	Properties []ArchiveProperty
}

// ReadArchiveProperties parses the record starting at its 0x02 tag.
func ReadArchiveProperties(r *wire.Reader) (*ArchiveProperties, error) {
	const section = "archive properties"
	if err := expectProperty(r, section, PropertyArchiveProperties); err != nil {
		return nil, err
	}

	properties := &ArchiveProperties{}
	for {
		propertyType, err := r.Byte()
		if err != nil {
			return nil, inSection(section, err)
		}
		if PropertyID(propertyType) == PropertyEnd {
			return properties, nil
		}
		size, err := r.Number()
		if err != nil {
			return nil, inSection(section, fmt.Errorf("reading size of property 0x%02x: %w", propertyType, err))
		}
		data, err := r.Bytes(size)
		if err != nil {
			return nil, inSection(section, fmt.Errorf("reading property 0x%02x: %w", propertyType, err))
		}
		properties.Properties = append(properties.Properties, ArchiveProperty{
			Type: propertyType,
			Data: append([]byte(nil), data...),
		})
	}
}

// Write appends the record, tag and END included.
func (a *ArchiveProperties) Write(b *wire.Buffer) {
	b.Byte(byte(PropertyArchiveProperties))
	for _, property := range a.Properties {
		b.Byte(property.Type)
		b.Number(uint64(len(property.Data)))
		b.Raw(property.Data)
	}
	b.Byte(byte(PropertyEnd))
}
