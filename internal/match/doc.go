// Package match reconciles series and issue records fetched from
// independent metadata catalogs. It scores candidate pairs with a weighted
// multi-factor confidence function and fans searches out across the
// registered providers to find the best cross-source mapping.
package match
