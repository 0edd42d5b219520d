package draft

// lcsPair is one matched element of a longest common subsequence: a is the
// index in the first sequence, b the index in the second.
type lcsPair struct {
	a, b int
}

// longestCommonSubsequence computes an LCS of a and b under the supplied
// equality predicate using the standard O(len(a)*len(b)) dynamic
// programming table. Backtracking takes the diagonal whenever the predicate
// matches and otherwise steps down the first sequence on ties, so the
// result is deterministic for a given input.
func longestCommonSubsequence(a, b []any, eq func(x, y any) bool) []lcsPair {
	n, m := len(a), len(b)
	if n == 0 || m == 0 {
		return nil
	}

	dp := make([][]int, n+1)
	for i := range dp {
		dp[i] = make([]int, m+1)
	}
	for i := 1; i <= n; i++ {
		for j := 1; j <= m; j++ {
			switch {
			case eq(a[i-1], b[j-1]):
				dp[i][j] = dp[i-1][j-1] + 1
			case dp[i-1][j] >= dp[i][j-1]:
				dp[i][j] = dp[i-1][j]
			default:
				dp[i][j] = dp[i][j-1]
			}
		}
	}

	pairs := make([]lcsPair, 0, dp[n][m])
	i, j := n, m
	for i > 0 && j > 0 {
		switch {
		case eq(a[i-1], b[j-1]):
			pairs = append(pairs, lcsPair{a: i - 1, b: j - 1})
			i--
			j--
		case dp[i-1][j] >= dp[i][j-1]:
			i--
		default:
			j--
		}
	}

	for l, r := 0, len(pairs)-1; l < r; l, r = l+1, r-1 {
		pairs[l], pairs[r] = pairs[r], pairs[l]
	}
	return pairs
}
