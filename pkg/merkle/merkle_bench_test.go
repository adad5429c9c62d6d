package merkle

import (
	"fmt"
	"testing"
)

// BenchmarkBuildCommitment benchmarks tree construction with various sizes
func BenchmarkBuildCommitment(b *testing.B) {
	sizes := []int{16, 64, 256, 1024}

	for _, size := range sizes {
		b.Run(fmt.Sprintf("Leaves_%d", size), func(b *testing.B) {
			leaves := randomLeaves(size)
			pad := paddingLeaf()
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				_, _ = BuildCommitment(leaves, pad)
			}
		})
	}
}

// BenchmarkGenerateProof benchmarks proof generation
func BenchmarkGenerateProof(b *testing.B) {
	sizes := []int{16, 64, 256, 1024}

	for _, size := range sizes {
		leaves := randomLeaves(size)
		c, _ := BuildCommitment(leaves, paddingLeaf())

		b.Run(fmt.Sprintf("Leaves_%d", size), func(b *testing.B) {
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				_, _ = c.GenerateProof(i % size)
			}
		})
	}
}

// BenchmarkVerifyProof benchmarks single proof verification
func BenchmarkVerifyProof(b *testing.B) {
	sizes := []int{16, 64, 256, 1024}

	for _, size := range sizes {
		leaves := randomLeaves(size)
		c, _ := BuildCommitment(leaves, paddingLeaf())
		proof, _ := c.GenerateProof(0)

		b.Run(fmt.Sprintf("Leaves_%d", size), func(b *testing.B) {
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				_ = VerifyProof(leaves[0], proof, c.Root, c.Depth)
			}
		})
	}
}

// BenchmarkVerifyAll benchmarks whole-batch verification
func BenchmarkVerifyAll(b *testing.B) {
	sizes := []int{16, 64, 256}

	for _, size := range sizes {
		leaves := randomLeaves(size)
		c, _ := BuildCommitment(leaves, paddingLeaf())
		proofs := make([]*InclusionProof, size)
		for i := range leaves {
			proofs[i], _ = c.GenerateProof(i)
		}

		b.Run(fmt.Sprintf("Leaves_%d", size), func(b *testing.B) {
			b.ResetTimer()

			for i := 0; i < b.N; i++ {
				_ = VerifyAll(leaves, proofs, c.Root, c.Depth)
			}
		})
	}
}
