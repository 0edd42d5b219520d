package draft

import (
	"fmt"
	"testing"

	deepcopy "github.com/barkimedes/go-deepcopy"
	clone "github.com/huandu/go-clone"
	"github.com/mitchellh/copystructure"
)

type benchNode struct {
	Name     string
	Value    int
	Children []*benchNode
}

func init() {
	MustBind[benchNode]()
}

func buildBenchTree(width, depth int) *benchNode {
	n := &benchNode{Name: fmt.Sprintf("d%d", depth), Value: depth}
	if depth == 0 {
		return n
	}
	for i := 0; i < width; i++ {
		n.Children = append(n.Children, buildBenchTree(width, depth-1))
	}
	return n
}

func buildBenchObject(width, depth int) *Object {
	n, err := Wrap(buildBenchTree(width, depth))
	if err != nil {
		panic(err)
	}
	return n.(*Object)
}

// BenchmarkProduce_SingleEdit measures one edit on a tree, where structural
// sharing means only the path to the edit is copied.
func BenchmarkProduce_SingleEdit(b *testing.B) {
	for _, depth := range []int{2, 4, 6} {
		b.Run(fmt.Sprintf("Depth%d", depth), func(b *testing.B) {
			base := buildBenchObject(3, depth)
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				_, err := Produce(base, func(d *Object) error {
					d.Set("Value", i)
					return nil
				})
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkProduce_Noop(b *testing.B) {
	base := buildBenchObject(3, 4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, err := Produce(base, func(d *Object) error { return nil })
		if err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkProduce_WithPatches(b *testing.B) {
	base := buildBenchObject(3, 4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_, _, _, err := ProduceWithPatches(base, func(d *Object) error {
			d.Set("Value", i)
			return nil
		})
		if err != nil {
			b.Fatal(err)
		}
	}
}

// The full-copy baselines below copy the entire plain-Go tree per edit.
// They bound what a naive copy-then-mutate approach costs on the same
// shape.

func BenchmarkBaseline_DeepCopy(b *testing.B) {
	src := buildBenchTree(3, 4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dup, err := deepcopy.Anything(src)
		if err != nil {
			b.Fatal(err)
		}
		dup.(*benchNode).Value = i
	}
}

func BenchmarkBaseline_Copystructure(b *testing.B) {
	src := buildBenchTree(3, 4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dup, err := copystructure.Copy(src)
		if err != nil {
			b.Fatal(err)
		}
		dup.(*benchNode).Value = i
	}
}

func BenchmarkBaseline_GoClone(b *testing.B) {
	src := buildBenchTree(3, 4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		dup := clone.Clone(src).(*benchNode)
		dup.Value = i
	}
}

func BenchmarkWrap(b *testing.B) {
	src := buildBenchTree(3, 4)
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Wrap(src); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkApply_ForwardPatch(b *testing.B) {
	base := buildBenchObject(3, 4)
	_, fwd, _, err := ProduceWithPatches(base, func(d *Object) error {
		d.Set("Value", -1)
		return nil
	})
	if err != nil {
		b.Fatal(err)
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := Apply(base, fwd); err != nil {
			b.Fatal(err)
		}
	}
}
