package jdeps

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sort"
)

const classMagic = 0xCAFEBABE

// constant pool tags
const (
	tagUtf8               = 1
	tagInteger            = 3
	tagFloat              = 4
	tagLong               = 5
	tagDouble             = 6
	tagClass              = 7
	tagString             = 8
	tagFieldref           = 9
	tagMethodref          = 10
	tagInterfaceMethodref = 11
	tagNameAndType        = 12
	tagMethodHandle       = 15
	tagMethodType         = 16
	tagDynamic            = 17
	tagInvokeDynamic      = 18
	tagModule             = 19
	tagPackage            = 20
)

var errTruncated = errors.New("truncated class file")

// ClassInfo is what the report needs to know about one compiled class
type ClassInfo struct {
	// Name is the internal name, e.g. com/example/Foo
	Name string
	// References are the internal names of every class the class mentions,
	// sorted and without the class itself
	References []string
}

type classReader struct {
	data []byte
	pos  int
	err  error
}

func (r *classReader) take(n int) []byte {
	if r.err != nil {
		return nil
	}
	if n < 0 || r.pos+n > len(r.data) {
		r.err = errTruncated
		return nil
	}
	b := r.data[r.pos : r.pos+n]
	r.pos += n
	return b
}

func (r *classReader) u1() uint8 {
	b := r.take(1)
	if b == nil {
		return 0
	}
	return b[0]
}

func (r *classReader) u2() uint16 {
	b := r.take(2)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint16(b)
}

func (r *classReader) u4() uint32 {
	b := r.take(4)
	if b == nil {
		return 0
	}
	return binary.BigEndian.Uint32(b)
}

type constant struct {
	tag   uint8
	utf8  string
	index uint16
	// second index, used by NameAndType for the descriptor
	index2 uint16
}

// ParseClass extracts the class name and referenced classes from class file
// bytes. Only the constant pool and member descriptors are inspected.
func ParseClass(data []byte) (ClassInfo, error) {
	r := &classReader{data: data}
	if magic := r.u4(); r.err == nil && magic != classMagic {
		return ClassInfo{}, fmt.Errorf("not a class file (magic %#x)", magic)
	}
	r.take(4) // minor and major version

	count := int(r.u2())
	pool := make([]constant, count)
	for i := 1; i < count && r.err == nil; i++ {
		c := constant{tag: r.u1()}
		switch c.tag {
		case tagUtf8:
			c.utf8 = string(r.take(int(r.u2())))
		case tagClass, tagString, tagMethodType, tagModule, tagPackage:
			c.index = r.u2()
		case tagNameAndType:
			c.index = r.u2()
			c.index2 = r.u2()
		case tagInteger, tagFloat, tagFieldref, tagMethodref, tagInterfaceMethodref, tagDynamic, tagInvokeDynamic:
			r.take(4)
		case tagLong, tagDouble:
			r.take(8)
			pool[i] = c
			i++
			continue
		case tagMethodHandle:
			r.take(3)
		default:
			if r.err == nil {
				return ClassInfo{}, fmt.Errorf("unknown constant pool tag %d at index %d", c.tag, i)
			}
		}
		pool[i] = c
	}
	if r.err != nil {
		return ClassInfo{}, r.err
	}

	utf8At := func(index uint16) string {
		if int(index) < len(pool) && pool[index].tag == tagUtf8 {
			return pool[index].utf8
		}
		return ""
	}

	refs := make(map[string]bool)
	for _, c := range pool {
		switch c.tag {
		case tagClass:
			addClassName(refs, utf8At(c.index))
		case tagNameAndType:
			addDescriptor(refs, utf8At(c.index2))
		case tagMethodType:
			addDescriptor(refs, utf8At(c.index))
		}
	}

	r.take(2) // access flags
	thisClass := r.u2()
	r.take(2) // super class, already in the pool
	r.take(2 * int(r.u2()))

	// fields, then methods
	for members := 0; members < 2 && r.err == nil; members++ {
		memberCount := int(r.u2())
		for i := 0; i < memberCount && r.err == nil; i++ {
			r.take(4) // access flags and name
			addDescriptor(refs, utf8At(r.u2()))
			attributes := int(r.u2())
			for a := 0; a < attributes && r.err == nil; a++ {
				r.take(2)
				r.take(int(r.u4()))
			}
		}
	}
	if r.err != nil {
		return ClassInfo{}, r.err
	}

	if int(thisClass) >= len(pool) || pool[thisClass].tag != tagClass {
		return ClassInfo{}, fmt.Errorf("invalid this_class index %d", thisClass)
	}
	name := utf8At(pool[thisClass].index)
	delete(refs, name)

	references := make([]string, 0, len(refs))
	for ref := range refs {
		references = append(references, ref)
	}
	sort.Strings(references)

	return ClassInfo{Name: name, References: references}, nil
}

func addClassName(refs map[string]bool, name string) {
	if name == "" {
		return
	}
	if name[0] == '[' {
		addDescriptor(refs, name)
		return
	}
	refs[name] = true
}

// addDescriptor records every object type named in a field or method
// descriptor
func addDescriptor(refs map[string]bool, descriptor string) {
	for i := 0; i < len(descriptor); i++ {
		if descriptor[i] != 'L' {
			continue
		}
		end := i + 1
		for end < len(descriptor) && descriptor[end] != ';' {
			end++
		}
		if end == len(descriptor) {
			return
		}
		if end > i+1 {
			refs[descriptor[i+1:end]] = true
		}
		i = end
	}
}
