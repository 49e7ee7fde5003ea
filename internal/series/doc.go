// Package series generates the seed expressions evaluated by the pipeline:
// truncated exponential series and the log-trace expansion of a
// determinant, ln det(1 + A K S) = Σ_k ((-1)^(k+1) / k) A^k Tr[(K S)^k],
// exponentiated order by order.
package series
